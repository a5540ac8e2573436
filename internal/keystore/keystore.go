package keystore

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/scrypt"
	"golang.org/x/crypto/sha3"
)

// Supported schemes of the Web3 Secret Storage v3 format.
const (
	versionV3    = 3
	cipherAESCTR = "aes-128-ctr"
	kdfScrypt    = "scrypt"
	kdfPBKDF2    = "pbkdf2"
)

var ErrUnsupportedFormat = errors.New("unsupported keystore format")

// JSON layout of a v3 keystore file.
type encryptedKeyJSON struct {
	Address string     `json:"address"`
	Crypto  cryptoJSON `json:"crypto"`
	ID      string     `json:"id"`
	Version int        `json:"version"`
}

type cryptoJSON struct {
	Cipher       string                 `json:"cipher"`
	CipherText   string                 `json:"ciphertext"`
	CipherParams cipherParamsJSON       `json:"cipherparams"`
	KDF          string                 `json:"kdf"`
	KDFParams    map[string]interface{} `json:"kdfparams"`
	MAC          string                 `json:"mac"`
}

type cipherParamsJSON struct {
	IV string `json:"iv"`
}

// Keystore is a fully decoded v3 keystore. Every field is immutable
// after Parse, so Validate may be called from any number of goroutines
// at once; each call allocates its own scratch buffers and takes no
// locks.
type Keystore struct {
	Address string
	ID      string
	KDF     string

	cipherText []byte
	iv         []byte
	mac        []byte
	salt       []byte
	dkLen      int

	// scrypt parameters
	n, r, p int
	// pbkdf2 iteration count
	c int
}

// Load reads and parses a keystore file.
func Load(path string) (*Keystore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keystore file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a v3 keystore JSON document into an immutable
// Keystore. All hex fields and KDF parameters are decoded eagerly so
// that Validate does no parsing work per candidate.
func Parse(data []byte) (*Keystore, error) {
	var kj encryptedKeyJSON
	if err := json.Unmarshal(data, &kj); err != nil {
		return nil, fmt.Errorf("failed to parse keystore JSON: %w", err)
	}

	if kj.Version != versionV3 {
		return nil, fmt.Errorf("%w: version %d", ErrUnsupportedFormat, kj.Version)
	}
	if kj.Crypto.Cipher != cipherAESCTR {
		return nil, fmt.Errorf("%w: cipher %q", ErrUnsupportedFormat, kj.Crypto.Cipher)
	}
	if kj.ID != "" {
		if _, err := uuid.Parse(kj.ID); err != nil {
			// A malformed id has no effect on decryption; keep the
			// file loadable.
			slog.Warn("keystore id is not a valid UUID", "id", kj.ID)
		}
	}

	ks := &Keystore{
		Address: kj.Address,
		ID:      kj.ID,
		KDF:     kj.Crypto.KDF,
	}

	var err error
	if ks.cipherText, err = hexField("ciphertext", kj.Crypto.CipherText); err != nil {
		return nil, err
	}
	if ks.iv, err = hexField("iv", kj.Crypto.CipherParams.IV); err != nil {
		return nil, err
	}
	if ks.mac, err = hexField("mac", kj.Crypto.MAC); err != nil {
		return nil, err
	}

	saltHex, _ := kj.Crypto.KDFParams["salt"].(string)
	if ks.salt, err = hexField("salt", saltHex); err != nil {
		return nil, err
	}
	if ks.dkLen, err = intParam(kj.Crypto.KDFParams, "dklen"); err != nil {
		return nil, err
	}
	if ks.dkLen < 32 {
		return nil, fmt.Errorf("%w: dklen %d is too short", ErrUnsupportedFormat, ks.dkLen)
	}

	switch kj.Crypto.KDF {
	case kdfScrypt:
		if ks.n, err = intParam(kj.Crypto.KDFParams, "n"); err != nil {
			return nil, err
		}
		if ks.r, err = intParam(kj.Crypto.KDFParams, "r"); err != nil {
			return nil, err
		}
		if ks.p, err = intParam(kj.Crypto.KDFParams, "p"); err != nil {
			return nil, err
		}
	case kdfPBKDF2:
		prf, _ := kj.Crypto.KDFParams["prf"].(string)
		if prf != "hmac-sha256" {
			return nil, fmt.Errorf("%w: pbkdf2 prf %q", ErrUnsupportedFormat, prf)
		}
		if ks.c, err = intParam(kj.Crypto.KDFParams, "c"); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: kdf %q", ErrUnsupportedFormat, kj.Crypto.KDF)
	}

	return ks, nil
}

// Validate reports whether the password decrypts and authenticates the
// keystore: it derives the key, recomputes the Keccak-256 MAC over the
// second half of the derived key and the ciphertext, and compares it
// to the stored MAC in constant time.
func (k *Keystore) Validate(password string) (bool, error) {
	dk, err := k.deriveKey([]byte(password))
	if err != nil {
		return false, err
	}

	h := sha3.NewLegacyKeccak256()
	h.Write(dk[16:32])
	h.Write(k.cipherText)
	mac := h.Sum(nil)

	return subtle.ConstantTimeCompare(mac, k.mac) == 1, nil
}

// Params returns a human-readable description of the KDF settings.
func (k *Keystore) Params() string {
	switch k.KDF {
	case kdfScrypt:
		return fmt.Sprintf("scrypt(n=%d, r=%d, p=%d, dklen=%d)", k.n, k.r, k.p, k.dkLen)
	case kdfPBKDF2:
		return fmt.Sprintf("pbkdf2-hmac-sha256(c=%d, dklen=%d)", k.c, k.dkLen)
	}
	return k.KDF
}

func (k *Keystore) deriveKey(password []byte) ([]byte, error) {
	switch k.KDF {
	case kdfScrypt:
		return scrypt.Key(password, k.salt, k.n, k.r, k.p, k.dkLen)
	case kdfPBKDF2:
		return pbkdf2.Key(password, k.salt, k.c, k.dkLen, sha256.New), nil
	}
	return nil, fmt.Errorf("%w: kdf %q", ErrUnsupportedFormat, k.KDF)
}

func hexField(name, value string) ([]byte, error) {
	if value == "" {
		return nil, fmt.Errorf("keystore field %q is empty", name)
	}
	out, err := hex.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("keystore field %q is not valid hex: %w", name, err)
	}
	return out, nil
}

func intParam(params map[string]interface{}, key string) (int, error) {
	v, ok := params[key]
	if !ok {
		return 0, fmt.Errorf("kdfparams missing %q", key)
	}
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("kdfparams %q is not a number", key)
	}
	return int(f), nil
}

package store

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	keySize   = 32
	nonceSize = 24
)

// Cipher criptografa segredos curtos com NaCl secretbox. A saída é base64(nonce || caixa).
type Cipher struct {
	key [keySize]byte
}

// LoadOrCreateKey lê a chave do arquivo (base64) ou gera uma nova com permissão 0600.
func LoadOrCreateKey(path string) (*Cipher, error) {
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		raw, derr := base64.StdEncoding.DecodeString(strings.TrimSpace(string(data)))
		if derr != nil || len(raw) != keySize {
			return nil, fmt.Errorf("store: chave inválida em %s", path)
		}
		c := &Cipher{}
		copy(c.key[:], raw)
		return c, nil
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("store: ler chave: %w", err)
	}

	c := &Cipher{}
	if _, err := io.ReadFull(rand.Reader, c.key[:]); err != nil {
		return nil, fmt.Errorf("store: gerar chave: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("store: criar pasta da chave: %w", err)
		}
	}
	enc := base64.StdEncoding.EncodeToString(c.key[:])
	if err := os.WriteFile(path, []byte(enc), 0o600); err != nil {
		return nil, fmt.Errorf("store: gravar chave: %w", err)
	}
	return c, nil
}

// Encrypt "" permanece "".
func (c *Cipher) Encrypt(plain string) (string, error) {
	if plain == "" {
		return "", nil
	}
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("store: gerar nonce: %w", err)
	}
	out := secretbox.Seal(nonce[:], []byte(plain), &nonce, &c.key)
	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt falha com texto adulterado, chave diferente ou formato inválido.
func (c *Cipher) Decrypt(sealed string) (string, error) {
	if sealed == "" {
		return "", nil
	}
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil || len(raw) < nonceSize+secretbox.Overhead {
		return "", errors.New("store: segredo em formato inválido")
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &c.key)
	if !ok {
		return "", errors.New("store: segredo não pôde ser aberto com esta chave")
	}
	return string(plain), nil
}

// Package store persiste os contribuintes em empresas.json com as senhas criptografadas.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/domain"
	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/domain/entity"
	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/domain/repository"
	pkgnfse "github.com/Xeyco/Downloader-NFS-NACIONAL/pkg/nfse"
)

// record formato em disco de cada empresa.
type record struct {
	Name                string `json:"nome"`
	TaxID               string `json:"cnpj"`
	Password            string `json:"senha"`
	UsesCertificate     bool   `json:"usa_certificado"`
	CertificatePath     string `json:"caminho_pfx"`
	CertificatePassword string `json:"senha_pfx"`
}

type document struct {
	DefaultFolder string   `json:"pasta_padrao"`
	Taxpayers     []record `json:"empresas"`
}

// TaxpayerStore implementa repository.TaxpayerRepository sobre um arquivo JSON.
// Em memória os registros ficam em claro; em disco, senha e senha_pfx vão criptografadas.
type TaxpayerStore struct {
	path   string
	cipher *Cipher
	log    zerolog.Logger

	mu  sync.RWMutex
	doc document
}

var _ repository.TaxpayerRepository = (*TaxpayerStore)(nil)

// Open carrega o arquivo. Arquivo ausente = cadastro vazio; arquivo corrompido é erro
// para não sobrescrever cadastros existentes.
func Open(path string, cipher *Cipher, log zerolog.Logger) (*TaxpayerStore, error) {
	s := &TaxpayerStore{path: path, cipher: cipher, log: log.With().Str("component", "taxpayers").Logger()}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: ler %s: %w", path, err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		// formato antigo: lista simples de empresas
		var legacy []record
		if lerr := json.Unmarshal(data, &legacy); lerr != nil {
			return nil, fmt.Errorf("store: %s corrompido: %w", path, err)
		}
		doc.Taxpayers = legacy
	}
	for i := range doc.Taxpayers {
		r := &doc.Taxpayers[i]
		r.Password = s.open(r.Name, r.Password)
		r.CertificatePassword = s.open(r.Name, r.CertificatePassword)
	}
	s.doc = doc
	s.log.Info().Int("count", len(doc.Taxpayers)).Msg("contribuintes carregados")
	return s, nil
}

func (s *TaxpayerStore) open(name, sealed string) string {
	plain, err := s.cipher.Decrypt(sealed)
	if err != nil {
		s.log.Warn().Str("taxpayer", name).Err(err).Msg("erro ao descriptografar, usando senha vazia")
		return ""
	}
	return plain
}

func toEntity(r record) entity.Taxpayer {
	mode := entity.AuthModePassword
	if r.UsesCertificate {
		mode = entity.AuthModeCertificate
	}
	return entity.Taxpayer{
		TaxID:               r.TaxID,
		Name:                r.Name,
		AuthMode:            mode,
		Password:            r.Password,
		CertificatePath:     r.CertificatePath,
		CertificatePassword: r.CertificatePassword,
	}
}

func fromEntity(t entity.Taxpayer) record {
	r := record{
		Name:            strings.TrimSpace(t.Name),
		TaxID:           pkgnfse.Digits(t.TaxID),
		UsesCertificate: t.UsesCertificate(),
	}
	if r.UsesCertificate {
		r.CertificatePath = strings.TrimSpace(t.CertificatePath)
		r.CertificatePassword = strings.TrimSpace(t.CertificatePassword)
	} else {
		r.Password = strings.TrimSpace(t.Password)
	}
	return r
}

// Validate regras de cadastro: nome, CNPJ com 14 dígitos e a credencial do modo escolhido.
func Validate(t entity.Taxpayer) error {
	r := fromEntity(t)
	switch {
	case r.Name == "":
		return fmt.Errorf("%w: nome da empresa é obrigatório", domain.ErrInvalidInput)
	case !pkgnfse.ValidCNPJFormat(r.TaxID):
		return fmt.Errorf("%w: o CNPJ deve conter 14 dígitos numéricos", domain.ErrInvalidInput)
	case r.UsesCertificate && r.CertificatePath == "":
		return fmt.Errorf("%w: arquivo .pfx não informado", domain.ErrInvalidInput)
	case r.UsesCertificate && r.CertificatePassword == "":
		return fmt.Errorf("%w: senha do certificado não informada", domain.ErrInvalidInput)
	case !r.UsesCertificate && r.Password == "":
		return fmt.Errorf("%w: senha do portal não informada", domain.ErrInvalidInput)
	}
	if r.UsesCertificate {
		if _, err := os.Stat(r.CertificatePath); err != nil {
			return fmt.Errorf("%w: %s", domain.ErrCertificateNotFound, r.CertificatePath)
		}
	}
	return nil
}

// ── Leitura ──────────────────────────────────────────────────────────────────

func (s *TaxpayerStore) List() []entity.Taxpayer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.Taxpayer, 0, len(s.doc.Taxpayers))
	for _, r := range s.doc.Taxpayers {
		out = append(out, toEntity(r))
	}
	return out
}

func (s *TaxpayerStore) GetByTaxID(taxID string) (entity.Taxpayer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexLocked(taxID)
	if i < 0 {
		return entity.Taxpayer{}, fmt.Errorf("%w: CNPJ %s", domain.ErrNotFound, taxID)
	}
	return toEntity(s.doc.Taxpayers[i]), nil
}

func (s *TaxpayerStore) Select(taxIDs []string) ([]entity.Taxpayer, error) {
	if len(taxIDs) == 0 {
		return s.List(), nil
	}
	out := make([]entity.Taxpayer, 0, len(taxIDs))
	for _, id := range taxIDs {
		t, err := s.GetByTaxID(id)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *TaxpayerStore) DefaultFolder() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.DefaultFolder
}

func (s *TaxpayerStore) indexLocked(taxID string) int {
	digits := pkgnfse.Digits(taxID)
	for i, r := range s.doc.Taxpayers {
		if pkgnfse.Digits(r.TaxID) == digits {
			return i
		}
	}
	return -1
}

// ── Escrita ──────────────────────────────────────────────────────────────────

func (s *TaxpayerStore) Create(t entity.Taxpayer) error {
	if err := Validate(t); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r := fromEntity(t)
	if s.indexLocked(r.TaxID) >= 0 {
		return fmt.Errorf("%w: %s", domain.ErrAlreadyExists, pkgnfse.FormatCNPJ(r.TaxID))
	}
	s.doc.Taxpayers = append(s.doc.Taxpayers, r)
	s.log.Info().Str("taxpayer", r.Name).Msg("empresa cadastrada")
	return s.saveLocked()
}

func (s *TaxpayerStore) Update(t entity.Taxpayer) error {
	if err := Validate(t); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r := fromEntity(t)
	i := s.indexLocked(r.TaxID)
	if i < 0 {
		return fmt.Errorf("%w: CNPJ %s", domain.ErrNotFound, t.TaxID)
	}
	s.doc.Taxpayers[i] = r
	s.log.Info().Str("taxpayer", r.Name).Msg("empresa atualizada")
	return s.saveLocked()
}

func (s *TaxpayerStore) Delete(taxID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(taxID)
	if i < 0 {
		return fmt.Errorf("%w: CNPJ %s", domain.ErrNotFound, taxID)
	}
	name := s.doc.Taxpayers[i].Name
	s.doc.Taxpayers = append(s.doc.Taxpayers[:i], s.doc.Taxpayers[i+1:]...)
	s.log.Info().Str("taxpayer", name).Msg("empresa removida")
	return s.saveLocked()
}

func (s *TaxpayerStore) SetDefaultFolder(folder string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.DefaultFolder = strings.TrimSpace(folder)
	return s.saveLocked()
}

// saveLocked grava com as senhas criptografadas, via arquivo temporário e rename.
func (s *TaxpayerStore) saveLocked() error {
	out := document{DefaultFolder: s.doc.DefaultFolder, Taxpayers: make([]record, len(s.doc.Taxpayers))}
	for i, r := range s.doc.Taxpayers {
		var err error
		if r.Password, err = s.cipher.Encrypt(r.Password); err != nil {
			return err
		}
		if r.CertificatePassword, err = s.cipher.Encrypt(r.CertificatePassword); err != nil {
			return err
		}
		out.Taxpayers[i] = r
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("store: serializar: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("store: criar pasta: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".empresas-*.tmp")
	if err != nil {
		return fmt.Errorf("store: arquivo temporário: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("store: gravar: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("store: fechar: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("store: substituir %s: %w", s.path, err)
	}
	return nil
}

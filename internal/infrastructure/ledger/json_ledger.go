// Package ledger implementa o DownloadLedger persistido em um arquivo JSON
// (fingerprint -> timestamp ISO-8601 da conclusão).
package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultRetentionDays retenção padrão das entradas.
const DefaultRetentionDays = 90

// JSONLedger ledger em memória espelhado em disco após cada mutação.
// Falhas de I/O são logadas e engolidas: depois da primeira, o ledger segue só em memória.
type JSONLedger struct {
	path string
	log  zerolog.Logger
	now  func() time.Time

	mu       sync.Mutex
	entries  map[string]string
	degraded bool
}

// Option ajusta o ledger na construção.
type Option func(*JSONLedger)

// WithClock injeta o relógio (testes de retenção).
func WithClock(now func() time.Time) Option {
	return func(l *JSONLedger) {
		if now != nil {
			l.now = now
		}
	}
}

// Open carrega o ledger de path. Arquivo ausente ou corrompido resulta em ledger vazio.
func Open(path string, log zerolog.Logger, opts ...Option) *JSONLedger {
	l := &JSONLedger{
		path:    path,
		log:     log.With().Str("component", "ledger").Logger(),
		now:     time.Now,
		entries: map[string]string{},
	}
	for _, o := range opts {
		o(l)
	}
	l.load()
	return l
}

func (l *JSONLedger) load() {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if !os.IsNotExist(err) {
			l.log.Warn().Err(err).Str("path", l.path).Msg("não foi possível ler o cache de downloads, iniciando vazio")
		}
		return
	}
	entries := map[string]string{}
	if err := json.Unmarshal(data, &entries); err != nil {
		l.log.Warn().Err(err).Str("path", l.path).Msg("cache de downloads corrompido, iniciando vazio")
		return
	}
	l.entries = entries
	l.log.Debug().Int("entries", len(entries)).Msg("cache de downloads carregado")
}

// Fingerprint SHA-256 (hex) de "taxpayer_competence_counterparty".
func (l *JSONLedger) Fingerprint(taxpayer, competence, counterparty string) string {
	return Fingerprint(taxpayer, competence, counterparty)
}

// Fingerprint função pura usada pelo ledger; exposta para ferramentas e testes.
func Fingerprint(taxpayer, competence, counterparty string) string {
	sum := sha256.Sum256([]byte(taxpayer + "_" + competence + "_" + counterparty))
	return hex.EncodeToString(sum[:])
}

// Seen indica se o fingerprint já foi registrado.
func (l *JSONLedger) Seen(fingerprint string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.entries[fingerprint]
	return ok
}

// Record registra o fingerprint com o horário atual e persiste.
func (l *JSONLedger) Record(fingerprint string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[fingerprint] = l.now().Format(time.RFC3339Nano)
	l.persistLocked()
}

// Prune remove entradas anteriores a now-retentionDays e as de timestamp ilegível.
// Só persiste quando algo foi removido.
func (l *JSONLedger) Prune(retentionDays int) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	limit := l.now().AddDate(0, 0, -retentionDays)
	removed := 0
	for fp, ts := range l.entries {
		at, err := parseTimestamp(ts)
		if err != nil || at.Before(limit) {
			delete(l.entries, fp)
			removed++
		}
	}
	if removed > 0 {
		l.persistLocked()
		l.log.Info().Int("removed", removed).Int("retention_days", retentionDays).Msg("entradas antigas removidas do cache")
	}
	return removed
}

// localLayout ISO-8601 sem fuso, como gravado pelo aplicativo desktop (datetime.isoformat()).
const localLayout = "2006-01-02T15:04:05.999999999"

// parseTimestamp aceita RFC 3339 e, na falta de fuso, o horário local.
func parseTimestamp(ts string) (time.Time, error) {
	if at, err := time.Parse(time.RFC3339Nano, ts); err == nil {
		return at, nil
	}
	return time.ParseInLocation(localLayout, ts, time.Local)
}

// Len quantidade de entradas em memória.
func (l *JSONLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Degraded indica que a persistência falhou e o ledger segue só em memória.
func (l *JSONLedger) Degraded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.degraded
}

func (l *JSONLedger) persistLocked() {
	if l.degraded {
		return
	}
	if err := writeJSONAtomic(l.path, l.entries); err != nil {
		l.degraded = true
		l.log.Error().Err(err).Str("path", l.path).Msg("falha ao salvar cache de downloads; seguindo apenas em memória")
	}
}

// writeJSONAtomic grava em arquivo temporário no mesmo diretório e renomeia por cima do destino.
func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("ledger: serializar: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ledger: criar diretório: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".ledger-*.tmp")
	if err != nil {
		return fmt.Errorf("ledger: criar temporário: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("ledger: escrever: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("ledger: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("ledger: fechar: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("ledger: renomear: %w", err)
	}
	return nil
}

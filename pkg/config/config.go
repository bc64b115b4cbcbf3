package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config agrupa a configuração da aplicação (Viper: flags, env e arquivo opcional).
type Config struct {
	App      AppConfig
	Log      LogConfig
	Files    FilesConfig
	Portal   PortalConfig
	Browser  BrowserConfig
	Download DownloadConfig
	Timeouts TimeoutConfig
	Report   ReportConfig
	HTTP     HTTPConfig
}

// AppConfig configuração geral.
type AppConfig struct {
	Env  string // development, production
	Name string
}

// LogConfig nível e arquivo de log durável.
type LogConfig struct {
	Level string
	File  string // vazio = só console
}

// FilesConfig arquivos locais de estado.
type FilesConfig struct {
	Taxpayers           string // empresas.json
	Key                 string // chave das senhas
	Ledger              string // downloads_cache.json
	LedgerRetentionDays int
}

// PortalConfig endereço do portal nacional.
type PortalConfig struct {
	BaseURL      string
	LoginPath    string
	IssuedPath   string
	ReceivedPath string
}

// BrowserConfig Chrome controlado via DevTools.
type BrowserConfig struct {
	Headless bool
	ExecPath string
}

// DownloadConfig padrões de uma execução.
type DownloadConfig struct {
	Root       string
	Competence string // MM/AAAA; vazio = últimos 30 dias
	Kind       string // xml | pdf | both
	Directions string // issued,received
	UseCache   bool
}

// TimeoutConfig esperas do navegador.
type TimeoutConfig struct {
	Navigation time.Duration
	Element    time.Duration
	Download   time.Duration
	FastCheck  time.Duration
}

// ReportConfig relatórios.
type ReportConfig struct {
	PDFSummary bool
}

// HTTPConfig servidor da API de controle.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devolve o endereço de escuta (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load lê a configuração de flags (se fs != nil), variáveis de ambiente e arquivo opcional,
// nessa ordem de prioridade. Cada flag "download-root" corresponde à chave DOWNLOAD_ROOT.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// Opcional: arquivo de configuração (.env ou config.env)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos erro se não existir

	v.SetConfigName("config")
	v.AddConfigPath("./config")
	_ = v.MergeInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	if fs != nil {
		var bindErr error
		fs.VisitAll(func(f *pflag.Flag) {
			if err := v.BindPFlag(FlagKey(f.Name), f); err != nil && bindErr == nil {
				bindErr = err
			}
		})
		if bindErr != nil {
			return nil, fmt.Errorf("config: flags: %w", bindErr)
		}
	}

	cfg := &Config{
		App: AppConfig{
			Env:  getString(v, "APP_ENV", "development"),
			Name: getString(v, "APP_NAME", "nfse-downloader"),
		},
		Log: LogConfig{
			Level: getString(v, "LOG_LEVEL", "info"),
			File:  getString(v, "LOG_FILE", "nfse_downloader.log"),
		},
		Files: FilesConfig{
			Taxpayers:           getString(v, "TAXPAYERS_FILE", "empresas.json"),
			Key:                 getString(v, "KEY_FILE", ".key"),
			Ledger:              getString(v, "LEDGER_FILE", "downloads_cache.json"),
			LedgerRetentionDays: getInt(v, "LEDGER_RETENTION_DAYS", 90),
		},
		Portal: PortalConfig{
			BaseURL:      getString(v, "PORTAL_BASE_URL", "https://www.nfse.gov.br/EmissorNacional"),
			LoginPath:    getString(v, "PORTAL_LOGIN_PATH", "/Login?ReturnUrl=%2fEmissorNacional"),
			IssuedPath:   getString(v, "PORTAL_ISSUED_PATH", "/Notas/Emitidas"),
			ReceivedPath: getString(v, "PORTAL_RECEIVED_PATH", "/Notas/Recebidas?executar=1"),
		},
		Browser: BrowserConfig{
			Headless: getBool(v, "BROWSER_HEADLESS", false),
			ExecPath: getString(v, "BROWSER_EXEC_PATH", ""),
		},
		Download: DownloadConfig{
			Root:       getString(v, "DOWNLOAD_ROOT", "Notas Fiscais"),
			Competence: getString(v, "COMPETENCE", ""),
			Kind:       getString(v, "DOWNLOAD_KIND", "both"),
			Directions: getString(v, "DIRECTIONS", "issued,received"),
			UseCache:   getBool(v, "USE_CACHE", true),
		},
		Timeouts: TimeoutConfig{
			Navigation: getDuration(v, "TIMEOUT_NAVIGATION", 30*time.Second),
			Element:    getDuration(v, "TIMEOUT_ELEMENT", 5*time.Second),
			Download:   getDuration(v, "TIMEOUT_DOWNLOAD", 30*time.Second),
			FastCheck:  getDuration(v, "TIMEOUT_FAST_CHECK", time.Second),
		},
		Report: ReportConfig{
			PDFSummary: getBool(v, "REPORT_PDF_SUMMARY", false),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "127.0.0.1"),
			Port: getInt(v, "HTTP_PORT", 8765),
		},
	}
	if cfg.Files.LedgerRetentionDays <= 0 {
		return nil, fmt.Errorf("config: LEDGER_RETENTION_DAYS deve ser positivo")
	}
	return cfg, nil
}

// FlagKey "download-root" -> "DOWNLOAD_ROOT".
func FlagKey(name string) string {
	return strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if !v.IsSet(key) {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		return def
	}
	return b
}

// getDuration aceita "30s", "1m" ou segundos inteiros.
func getDuration(v *viper.Viper, key string, def time.Duration) time.Duration {
	if !v.IsSet(key) {
		return def
	}
	s := strings.TrimSpace(v.GetString(key))
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

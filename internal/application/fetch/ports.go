package fetch

import (
	"context"
	"time"

	appreport "github.com/Xeyco/Downloader-NFS-NACIONAL/internal/application/report"
	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/domain/entity"
	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/domain/period"
)

// Selector localiza elementos na página. Expressões que começam com "/" ou "(" são XPath;
// o resto é seletor CSS.
type Selector string

// IsXPath indica se o seletor deve ser avaliado como XPath.
func (s Selector) IsXPath() bool {
	return len(s) > 0 && (s[0] == '/' || s[0] == '(')
}

// Download arquivo recebido pelo navegador, ainda em local temporário.
type Download struct {
	SuggestedFilename string
	Path              string
}

// PageDriver capacidades mínimas de automação de página usadas pela máquina de estados.
// Métodos sem timeout explícito usam o timeout de elemento do próprio driver.
type PageDriver interface {
	Navigate(ctx context.Context, url string) error
	// WaitIdle aguarda a rede ficar ociosa.
	WaitIdle(ctx context.Context, timeout time.Duration) error
	WaitVisible(ctx context.Context, sel Selector, timeout time.Duration) error
	// Visible checagem limitada; nunca falha, só responde.
	Visible(ctx context.Context, sel Selector, timeout time.Duration) bool
	Count(ctx context.Context, sel Selector) (int, error)
	Text(ctx context.Context, sel Selector) (string, error)
	Attribute(ctx context.Context, sel Selector, name string) (value string, ok bool, err error)
	// Fill limpa o campo e digita value.
	Fill(ctx context.Context, sel Selector, value string) error
	Click(ctx context.Context, sel Selector) error
	// Download clica em trigger e aguarda o arquivo resultante.
	Download(ctx context.Context, trigger Selector, timeout time.Duration) (*Download, error)
	Close() error
}

// Browser abre uma sessão de navegador isolada por contribuinte.
type Browser interface {
	Open(ctx context.Context, taxpayer entity.Taxpayer) (PageDriver, error)
}

// Observer recebe os eventos de progresso. Publish não pode bloquear.
type Observer interface {
	Publish(ev entity.RunEvent)
}

// CertificateChecker valida o certificado A1 antes de abrir o navegador.
// Deve devolver erros que embrulham domain.ErrCertificateNotFound ou domain.ErrCertificateInvalid.
type CertificateChecker interface {
	Check(path, password string) error
}

// ReportGenerator relatórios automáticos ao fim de cada contribuinte.
type ReportGenerator interface {
	Auto(taxpayerDir, taxpayerName string, comp period.Competence, dir entity.Direction) (*appreport.Output, error)
}

type noopObserver struct{}

func (noopObserver) Publish(entity.RunEvent) {}

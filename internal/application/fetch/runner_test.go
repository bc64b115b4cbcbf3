package fetch_test

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/application/fetch"
	appreport "github.com/Xeyco/Downloader-NFS-NACIONAL/internal/application/report"
	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/domain"
	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/domain/entity"
	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/domain/period"
)

type fakeCerts struct {
	missing map[string]bool
}

func (f fakeCerts) Check(path, _ string) error {
	if f.missing[path] {
		return fmt.Errorf("%w: %s", domain.ErrCertificateNotFound, path)
	}
	return nil
}

type fakeReports struct {
	mu    sync.Mutex
	calls []entity.Direction
	err   error
}

func (f *fakeReports) Auto(taxpayerDir, _ string, comp period.Competence, dir entity.Direction) (*appreport.Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, dir)
	if f.err != nil {
		return nil, f.err
	}
	return &appreport.Output{ReportPath: filepath.Join(taxpayerDir, "Relatorio_"+comp.FolderName()+".xlsx"), Records: 1}, nil
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestRunner_RejeitaListaVazia(t *testing.T) {
	r := fetch.NewRunner(&fakeBrowser{portal: newFakePortal(t.TempDir())}, nil, nil, testDeps(nil, nil))
	_, err := r.Start(context.Background(), fetch.Request{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, ok := r.Status()
	assert.False(t, ok)
}

func TestRunner_CertificadoAusenteEFatalSoParaOContribuinte(t *testing.T) {
	portal := newFakePortal(t.TempDir())
	portal.setRows(portal.issuedURL(), "",
		fakeRow{competence: "01/2026", party: "X - CLIENTE", status: "Autorizada", xmlName: "a.xml"},
	)
	browser := &fakeBrowser{portal: portal}
	obs := &recorder{}
	certs := fakeCerts{missing: map[string]bool{"sem.pfx": true}}
	r := fetch.NewRunner(browser, certs, nil, testDeps(nil, obs))

	req := fetch.Request{
		Taxpayers: []entity.Taxpayer{
			{Name: "SEM CERT", AuthMode: entity.AuthModeCertificate, CertificatePath: "sem.pfx"},
			acme,
		},
		Options: issuedOnly(t.TempDir(), "", entity.ArtifactXML),
	}
	st, err := r.Run(waitCtx(t), req)
	require.NoError(t, err)

	require.Len(t, st.Results, 2)
	assert.Contains(t, st.Results[0].Error, "certificado")
	assert.Equal(t, 0, st.Results[0].Downloaded)
	assert.Equal(t, 1, st.Results[1].Downloaded)
	assert.Equal(t, []string{"ACME"}, browser.opened, "navegador não abre sem certificado")
	assert.Len(t, obs.levels(entity.EventAlert), 1)
	assert.False(t, st.Running)
	assert.Equal(t, 1, st.Downloaded())
	assert.True(t, portal.closed)
}

func TestRunner_SegundaExecucaoEmAndamentoERejeitada(t *testing.T) {
	browser := &fakeBrowser{portal: newFakePortal(t.TempDir()), block: make(chan struct{})}
	r := fetch.NewRunner(browser, nil, nil, testDeps(nil, nil))
	req := fetch.Request{Taxpayers: []entity.Taxpayer{acme}, Options: issuedOnly(t.TempDir(), "", entity.ArtifactXML)}

	id, err := r.Start(context.Background(), req)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	_, err = r.Start(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrRunInProgress)

	st, ok := r.Status()
	require.True(t, ok)
	assert.True(t, st.Running)
	assert.Equal(t, id, st.ID)

	close(browser.block)
	st, err = r.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.False(t, st.Running)

	_, err = r.Start(context.Background(), req)
	assert.NoError(t, err, "nova execução liberada após o término")
	_, err = r.Wait(waitCtx(t))
	require.NoError(t, err)
}

func TestRunner_CancelInterrompeEMarcaExecucao(t *testing.T) {
	browser := &fakeBrowser{portal: newFakePortal(t.TempDir()), block: make(chan struct{})}
	r := fetch.NewRunner(browser, nil, nil, testDeps(nil, nil))
	assert.False(t, r.Cancel(), "sem execução ativa")

	req := fetch.Request{
		Taxpayers: []entity.Taxpayer{acme, {Name: "OUTRA", AuthMode: entity.AuthModePassword}},
		Options:   issuedOnly(t.TempDir(), "", entity.ArtifactXML),
	}
	_, err := r.Start(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, r.Cancel())
	close(browser.block)

	st, err := r.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.True(t, st.Cancelled)
	assert.LessOrEqual(t, len(st.Results), 1, "o segundo contribuinte não é processado")
}

func TestRunner_RelatoriosAutomaticosPorSentido(t *testing.T) {
	portal := newFakePortal(t.TempDir())
	portal.setRows(portal.issuedURL(), "01/01/2026",
		fakeRow{competence: "01/2026", party: "X - CLIENTE", status: "Autorizada", xmlName: "a.xml"},
	)
	reports := &fakeReports{}
	r := fetch.NewRunner(&fakeBrowser{portal: portal}, nil, reports, testDeps(nil, nil))

	opts := issuedOnly(t.TempDir(), "01/2026", entity.ArtifactXML)
	opts.Directions = []entity.Direction{entity.DirectionIssued, entity.DirectionReceived}
	st, err := r.Run(waitCtx(t), fetch.Request{Taxpayers: []entity.Taxpayer{acme}, Options: opts})
	require.NoError(t, err)

	assert.Equal(t, []entity.Direction{entity.DirectionIssued, entity.DirectionReceived}, reports.calls)
	require.Len(t, st.Results, 1)
	assert.Len(t, st.Results[0].Reports, 2)
}

func TestRunner_SemDownloadsNaoGeraRelatorio(t *testing.T) {
	reports := &fakeReports{err: domain.ErrNoResults}
	r := fetch.NewRunner(&fakeBrowser{portal: newFakePortal(t.TempDir())}, nil, reports, testDeps(nil, nil))

	_, err := r.Run(waitCtx(t), fetch.Request{
		Taxpayers: []entity.Taxpayer{acme},
		Options:   issuedOnly(t.TempDir(), "01/2026", entity.ArtifactXML),
	})
	require.NoError(t, err)
	assert.Empty(t, reports.calls)
}

package feed_test

import (
	"bytes"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/domain/entity"
	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/infrastructure/feed"
)

func ev(msg string) entity.RunEvent {
	return entity.RunEvent{Level: entity.EventInfo, Message: msg}
}

func TestFeed_EntregaNaOrdemEmitida(t *testing.T) {
	var (
		mu  sync.Mutex
		got []string
	)
	f := feed.New(0, zerolog.Nop(), feed.SinkFunc(func(e entity.RunEvent) {
		mu.Lock()
		got = append(got, fmt.Sprintf("%d:%s", e.Seq, e.Message))
		mu.Unlock()
	}))
	for i := 1; i <= 100; i++ {
		f.Publish(ev(fmt.Sprint(i)))
	}
	f.Close()

	require.Len(t, got, 100)
	for i, s := range got {
		assert.Equal(t, fmt.Sprintf("%d:%d", i+1, i+1), s)
	}
	assert.Equal(t, uint64(100), f.LastSeq())
}

func TestFeed_SinceUsaHistoricoCircular(t *testing.T) {
	f := feed.New(4, zerolog.Nop())
	for i := 1; i <= 3; i++ {
		f.Publish(ev(fmt.Sprint(i)))
	}
	// espera o consumo antes de encher o buffer de novo
	require.Eventually(t, func() bool { return f.LastSeq() == 3 }, time.Second, time.Millisecond)
	for i := 4; i <= 6; i++ {
		f.Publish(ev(fmt.Sprint(i)))
	}
	f.Close()

	all := f.Since(0)
	require.Len(t, all, 4, "só as 4 últimas permanecem")
	assert.Equal(t, uint64(3), all[0].Seq)
	assert.Equal(t, uint64(6), all[3].Seq)

	tail := f.Since(5)
	require.Len(t, tail, 1)
	assert.Equal(t, "6", tail[0].Message)
	assert.Empty(t, f.Since(6))
}

func TestFeed_PublishDepoisDoCloseEIgnorado(t *testing.T) {
	f := feed.New(2, zerolog.Nop())
	f.Close()
	f.Publish(ev("tarde"))
	f.Close()
	assert.Empty(t, f.Since(0))
}

func TestFeed_SinkComPanicNaoDerrubaEntrega(t *testing.T) {
	var n int
	f := feed.New(8, zerolog.Nop(),
		feed.SinkFunc(func(entity.RunEvent) { panic("boom") }),
		feed.SinkFunc(func(entity.RunEvent) { n++ }),
	)
	f.Publish(ev("a"))
	f.Publish(ev("b"))
	f.Close()
	assert.Equal(t, 2, n)
}

func TestConsole_FormataLinha(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	var buf bytes.Buffer
	c := feed.NewConsole(&buf)
	c.Write(entity.RunEvent{
		Time:     time.Date(2026, 1, 2, 9, 5, 7, 0, time.UTC),
		Level:    entity.EventSuccess,
		Taxpayer: "ACME",
		Message:  "XML salvo",
	})
	c.Write(entity.RunEvent{Time: time.Date(2026, 1, 2, 9, 5, 8, 0, time.UTC), Level: "desconhecido", Message: "sem contribuinte"})

	assert.Equal(t, "[09:05:07] [ACME] XML salvo\n[09:05:08] sem contribuinte\n", buf.String())
}

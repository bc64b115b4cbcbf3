// Package feed entrega os eventos de progresso de forma assíncrona e ordenada:
// um canal com buffer drenado por uma única goroutine, que numera, guarda um histórico
// circular e repassa aos sinks.
package feed

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/domain/entity"
)

// DefaultCapacity tamanho padrão do buffer e do histórico.
const DefaultCapacity = 1024

// Sink destino de eventos já numerados. Chamado só pela goroutine do feed.
type Sink interface {
	Write(ev entity.RunEvent)
}

// SinkFunc adapta uma função a Sink.
type SinkFunc func(ev entity.RunEvent)

func (f SinkFunc) Write(ev entity.RunEvent) { f(ev) }

// Feed implementa fetch.Observer.
type Feed struct {
	ch    chan entity.RunEvent
	sinks []Sink
	log   zerolog.Logger
	done  chan struct{}

	pubMu  sync.RWMutex
	closed bool

	mu      sync.RWMutex
	history []entity.RunEvent // circular
	next    int
	size    int
	seq     uint64
	dropped uint64
}

// New inicia a goroutine de entrega. capacity <= 0 usa DefaultCapacity.
func New(capacity int, log zerolog.Logger, sinks ...Sink) *Feed {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	f := &Feed{
		ch:      make(chan entity.RunEvent, capacity),
		sinks:   sinks,
		log:     log.With().Str("component", "feed").Logger(),
		done:    make(chan struct{}),
		history: make([]entity.RunEvent, capacity),
	}
	go f.loop()
	return f
}

// Publish não bloqueia: com o buffer cheio o evento é descartado e contado.
func (f *Feed) Publish(ev entity.RunEvent) {
	f.pubMu.RLock()
	defer f.pubMu.RUnlock()
	if f.closed {
		return
	}
	select {
	case f.ch <- ev:
	default:
		f.mu.Lock()
		f.dropped++
		f.mu.Unlock()
	}
}

func (f *Feed) loop() {
	defer close(f.done)
	for ev := range f.ch {
		f.mu.Lock()
		f.seq++
		ev.Seq = f.seq
		f.history[f.next] = ev
		f.next = (f.next + 1) % len(f.history)
		if f.size < len(f.history) {
			f.size++
		}
		f.mu.Unlock()

		for _, s := range f.sinks {
			f.deliver(s, ev)
		}
	}
}

func (f *Feed) deliver(s Sink, ev entity.RunEvent) {
	defer func() {
		if p := recover(); p != nil {
			f.log.Error().Interface("panic", p).Msg("sink falhou")
		}
	}()
	s.Write(ev)
}

// Since eventos com Seq > after ainda no histórico, em ordem.
func (f *Feed) Since(after uint64) []entity.RunEvent {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]entity.RunEvent, 0)
	start := (f.next - f.size + len(f.history)) % len(f.history)
	for i := 0; i < f.size; i++ {
		ev := f.history[(start+i)%len(f.history)]
		if ev.Seq > after {
			out = append(out, ev)
		}
	}
	return out
}

// LastSeq último número atribuído.
func (f *Feed) LastSeq() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.seq
}

// Dropped eventos descartados por buffer cheio.
func (f *Feed) Dropped() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dropped
}

// Close para de aceitar eventos e espera a entrega dos pendentes.
func (f *Feed) Close() {
	f.pubMu.Lock()
	if f.closed {
		f.pubMu.Unlock()
		<-f.done
		return
	}
	f.closed = true
	close(f.ch)
	f.pubMu.Unlock()
	<-f.done
	if n := f.Dropped(); n > 0 {
		f.log.Warn().Uint64("dropped", n).Msg("eventos descartados com buffer cheio")
	}
}

// Package period gera os intervalos de consulta da listagem do portal a partir de uma competência.
package period

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/domain"
)

// DisplayLayout formato de data usado nos campos de filtro do portal.
const DisplayLayout = "02/01/2006"

// WindowDays tamanho máximo de cada janela após o mês da competência.
const WindowDays = 30

// Period intervalo fechado [Start, End]. Sentinel indica "usar o padrão do portal (últimos 30 dias)".
type Period struct {
	Start    time.Time
	End      time.Time
	Sentinel bool
}

// StartText data inicial no formato do portal ("" para o sentinela).
func (p Period) StartText() string {
	if p.Sentinel {
		return ""
	}
	return p.Start.Format(DisplayLayout)
}

// EndText data final no formato do portal ("" para o sentinela).
func (p Period) EndText() string {
	if p.Sentinel {
		return ""
	}
	return p.End.Format(DisplayLayout)
}

// String descrição legível para logs.
func (p Period) String() string {
	if p.Sentinel {
		return "Últimos 30 dias"
	}
	return p.StartText() + " a " + p.EndText()
}

// Competence mês/ano de atribuição das notas.
type Competence struct {
	Month int
	Year  int
}

// String formato do portal: MM/AAAA.
func (c Competence) String() string {
	return fmt.Sprintf("%02d/%04d", c.Month, c.Year)
}

// FolderName formato usado em pastas e nomes de relatório: MM-AAAA.
func (c Competence) FolderName() string {
	return fmt.Sprintf("%02d-%04d", c.Month, c.Year)
}

// ParseCompetence valida "MM/AAAA" (mês 1..12, ano 2000..2100).
func ParseCompetence(s string) (Competence, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 2 {
		return Competence{}, fmt.Errorf("%w: %q", domain.ErrInvalidCompetence, s)
	}
	month, errM := strconv.Atoi(strings.TrimSpace(parts[0]))
	year, errY := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errM != nil || errY != nil {
		return Competence{}, fmt.Errorf("%w: %q", domain.ErrInvalidCompetence, s)
	}
	if month < 1 || month > 12 || year < 2000 || year > 2100 {
		return Competence{}, fmt.Errorf("%w: %q fora do intervalo", domain.ErrInvalidCompetence, s)
	}
	return Competence{Month: month, Year: year}, nil
}

// Generate devolve os períodos de consulta para a competência, em ordem, até "now".
//
//   - competência vazia: um único período sentinela.
//   - competência válida: o mês inteiro (até hoje, se for o mês corrente) e depois janelas de
//     até 30 dias a partir do dia seguinte, truncando a última em "now". Competência futura
//     gera só o mês, sem truncar.
//   - competência inválida: período sentinela e um erro de aviso (ErrInvalidCompetence).
//     O erro não impede o uso do resultado.
func Generate(competence string, now time.Time) ([]Period, error) {
	sentinel := []Period{{Sentinel: true}}
	if strings.TrimSpace(competence) == "" {
		return sentinel, nil
	}
	comp, err := ParseCompetence(competence)
	if err != nil {
		return sentinel, err
	}

	loc := now.Location()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	first := time.Date(comp.Year, time.Month(comp.Month), 1, 0, 0, 0, 0, loc)
	last := first.AddDate(0, 1, -1)
	if !first.After(today) && last.After(today) {
		last = today
	}

	periods := []Period{{Start: first, End: last}}
	for cursor := last.AddDate(0, 0, 1); !cursor.After(today); {
		end := cursor.AddDate(0, 0, WindowDays-1)
		if end.After(today) {
			end = today
		}
		periods = append(periods, Period{Start: cursor, End: end})
		cursor = end.AddDate(0, 0, 1)
	}
	return periods, nil
}

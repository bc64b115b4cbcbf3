package fetch

import (
	"fmt"
	"strconv"
	"strings"

	pkgnfse "github.com/Xeyco/Downloader-NFS-NACIONAL/pkg/nfse"
)

// Rótulos de situação quando o ícone não informa.
const (
	StatusUndefined = "Indefinido"
	StatusUnread    = "StatusNaoLido"
)

// ParseTotal lê N de "Total de N registros".
func ParseTotal(label string) (int, error) {
	fields := strings.Fields(label)
	for i := 0; i+2 < len(fields); i++ {
		if strings.EqualFold(fields[i], "Total") && strings.EqualFold(fields[i+1], "de") {
			n, err := strconv.Atoi(strings.ReplaceAll(fields[i+2], ".", ""))
			if err != nil {
				return 0, fmt.Errorf("fetch: total ilegível %q: %w", label, err)
			}
			return n, nil
		}
	}
	return 0, fmt.Errorf("fetch: rótulo de total não reconhecido: %q", label)
}

// StatusLabel normaliza o título do ícone de situação para uso como pasta.
func StatusLabel(title string, readErr error) string {
	if readErr != nil {
		return StatusUnread
	}
	title = strings.TrimSpace(strings.ReplaceAll(title, "/", "-"))
	title = pkgnfse.SanitizeFileName(title)
	if title == "" {
		return StatusUndefined
	}
	return title
}

// CompetenceFolder "01/2026" -> "01-2026".
func CompetenceFolder(competence string) string {
	return pkgnfse.SanitizeFileName(strings.ReplaceAll(strings.TrimSpace(competence), "/", "-"))
}

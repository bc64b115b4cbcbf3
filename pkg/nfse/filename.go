package nfse

import "strings"

// MaxFileNameLength limite de runas de um nome sanitizado.
const MaxFileNameLength = 200

const invalidFileNameChars = `<>:"/\|?*`

// SanitizeFileName remove caracteres proibidos em caminhos, colapsa espaços e limita o tamanho.
func SanitizeFileName(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		if strings.ContainsRune(invalidFileNameChars, r) || r < 0x20 {
			return -1
		}
		return r
	}, name)
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	if runes := []rune(cleaned); len(runes) > MaxFileNameLength {
		cleaned = string(runes[:MaxFileNameLength])
	}
	return strings.TrimSpace(cleaned)
}

// CounterpartyName extrai o nome da contraparte do texto da coluna da listagem.
// "12.345.678/0001-99 - ACME LTDA" -> "ACME LTDA". Sem " - ", usa o último trecho após "-";
// sem hífen, o texto inteiro. O resultado já vem sanitizado para uso em nomes de arquivo.
func CounterpartyName(cell string) string {
	var name string
	switch {
	case strings.Contains(cell, " - "):
		parts := strings.Split(cell, " - ")
		name = parts[len(parts)-1]
	case strings.Contains(cell, "-"):
		parts := strings.Split(cell, "-")
		name = parts[len(parts)-1]
	default:
		name = cell
	}
	return SanitizeFileName(strings.TrimSpace(name))
}

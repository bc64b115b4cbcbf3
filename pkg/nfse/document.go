// Package nfse utilidades de documentos brasileiros (CNPJ/CPF) e nomes de arquivo usados pelo downloader.
package nfse

import (
	"fmt"
	"unicode"
)

// pesos do cálculo dos dígitos verificadores do CNPJ (módulo 11).
var (
	cnpjWeights1 = [12]int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	cnpjWeights2 = [13]int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
)

// Digits remove tudo que não for dígito ("12.345.678/0001-99" -> "12345678000199").
func Digits(s string) string {
	return string(extractDigits(s))
}

// FormatCNPJ formata 14 dígitos como NN.NNN.NNN/NNNN-NN. Outros tamanhos devolvem a entrada intacta.
func FormatCNPJ(cnpj string) string {
	d := extractDigits(cnpj)
	if len(d) != 14 {
		return cnpj
	}
	return fmt.Sprintf("%s.%s.%s/%s-%s", d[:2], d[2:5], d[5:8], d[8:12], d[12:])
}

// FormatCPF formata 11 dígitos como NNN.NNN.NNN-NN. Outros tamanhos devolvem a entrada intacta.
func FormatCPF(cpf string) string {
	d := extractDigits(cpf)
	if len(d) != 11 {
		return cpf
	}
	return fmt.Sprintf("%s.%s.%s-%s", d[:3], d[3:6], d[6:9], d[9:])
}

// FormatDocument formata o documento da contraparte para exibição:
// 14 dígitos como CNPJ, 11 como CPF; qualquer outra coisa vira string vazia.
func FormatDocument(doc string) string {
	switch len(extractDigits(doc)) {
	case 14:
		return FormatCNPJ(doc)
	case 11:
		return FormatCPF(doc)
	default:
		return ""
	}
}

// ValidCNPJFormat verifica apenas o formato básico (14 dígitos), como o cadastro exige.
func ValidCNPJFormat(cnpj string) bool {
	return len(extractDigits(cnpj)) == 14
}

// ValidateCNPJCheckDigits valida os dois dígitos verificadores do CNPJ.
func ValidateCNPJCheckDigits(cnpj string) error {
	d := extractDigits(cnpj)
	if len(d) != 14 {
		return fmt.Errorf("nfse: CNPJ deve ter 14 dígitos, encontrados %d", len(d))
	}
	allSame := true
	for _, c := range d[1:] {
		if c != d[0] {
			allSame = false
			break
		}
	}
	if allSame {
		return fmt.Errorf("nfse: CNPJ com dígitos repetidos")
	}
	dv1 := checkDigit(d[:12], cnpjWeights1[:])
	dv2 := checkDigit(append(append([]byte{}, d[:12]...), dv1), cnpjWeights2[:])
	if d[12] != dv1 || d[13] != dv2 {
		return fmt.Errorf("nfse: dígitos verificadores do CNPJ inválidos: esperado %c%c, recebido %c%c", dv1, dv2, d[12], d[13])
	}
	return nil
}

func checkDigit(digits []byte, weights []int) byte {
	var sum int
	for i, c := range digits {
		sum += int(c-'0') * weights[i]
	}
	rem := sum % 11
	if rem < 2 {
		return '0'
	}
	return byte('0' + (11 - rem))
}

func extractDigits(s string) []byte {
	var out []byte
	for _, r := range s {
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			out = append(out, byte(r))
		}
	}
	return out
}

package entity

import "strings"

// Direction sentido da nota em relação ao contribuinte: emitida ou recebida.
type Direction string

const (
	DirectionIssued   Direction = "issued"
	DirectionReceived Direction = "received"
)

// PartyRole papel da contraparte extraída de cada nota.
type PartyRole string

const (
	PartyRecipient PartyRole = "recipient" // tomador (notas emitidas)
	PartyIssuer    PartyRole = "issuer"    // prestador (notas recebidas)
)

// Folder nome da subpasta de saída para o sentido.
func (d Direction) Folder() string {
	if d == DirectionReceived {
		return "RECEBIDAS"
	}
	return "EMITIDAS"
}

// Label rótulo usado em relatórios e mensagens ("Emitidas" / "Recebidas").
func (d Direction) Label() string {
	if d == DirectionReceived {
		return "Recebidas"
	}
	return "Emitidas"
}

// PartyRole contraparte nomeada pelas linhas deste sentido.
func (d Direction) PartyRole() PartyRole {
	if d == DirectionReceived {
		return PartyIssuer
	}
	return PartyRecipient
}

// ParseDirections converte "issued,received" (ou "emitidas,recebidas") em sentidos válidos.
// Entradas desconhecidas são ignoradas; lista vazia devolve os dois sentidos.
func ParseDirections(s string) []Direction {
	var out []Direction
	seen := map[Direction]bool{}
	for _, part := range strings.Split(s, ",") {
		var d Direction
		switch strings.ToLower(strings.TrimSpace(part)) {
		case "issued", "emitidas", "emitida":
			d = DirectionIssued
		case "received", "recebidas", "recebida":
			d = DirectionReceived
		default:
			continue
		}
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	if len(out) == 0 {
		return []Direction{DirectionIssued, DirectionReceived}
	}
	return out
}

package entity

import "strings"

// ArtifactKind tipo de arquivo baixado por nota.
type ArtifactKind string

const (
	ArtifactXML ArtifactKind = "xml" // XML fonte da NFS-e
	ArtifactPDF ArtifactKind = "pdf" // DANFS-e (representação gráfica)
)

// Folder subpasta onde o artefato é gravado.
func (k ArtifactKind) Folder() string {
	return strings.ToUpper(string(k))
}

// ParseArtifactKinds interpreta "xml", "pdf" ou "both"/"ambos". A ordem devolvida é sempre XML antes de PDF.
func ParseArtifactKinds(s string) []ArtifactKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "xml":
		return []ArtifactKind{ArtifactXML}
	case "pdf":
		return []ArtifactKind{ArtifactPDF}
	default:
		return []ArtifactKind{ArtifactXML, ArtifactPDF}
	}
}

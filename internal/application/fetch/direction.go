package fetch

import "github.com/Xeyco/Downloader-NFS-NACIONAL/internal/domain/entity"

// DirectionDescriptor o que difere entre a travessia de emitidas e de recebidas.
type DirectionDescriptor struct {
	Direction       entity.Direction
	ListingURL      string
	Folder          string
	StatusSubfolder bool
	Label           string
	PartyRole       entity.PartyRole
}

// Descriptors descritores na ordem pedida.
func Descriptors(l Layout, dirs []entity.Direction) []DirectionDescriptor {
	out := make([]DirectionDescriptor, 0, len(dirs))
	for _, d := range dirs {
		desc := DirectionDescriptor{
			Direction: d,
			Folder:    d.Folder(),
			Label:     d.Label(),
			PartyRole: d.PartyRole(),
		}
		if d == entity.DirectionReceived {
			desc.ListingURL = l.URL(l.ReceivedPath)
		} else {
			desc.ListingURL = l.URL(l.IssuedPath)
			desc.StatusSubfolder = true
		}
		out = append(out, desc)
	}
	return out
}

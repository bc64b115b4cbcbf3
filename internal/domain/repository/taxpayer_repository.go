package repository

import "github.com/Xeyco/Downloader-NFS-NACIONAL/internal/domain/entity"

// TaxpayerRepository define o porto de persistência dos contribuintes.
// As senhas entram e saem em claro; a criptografia em repouso é da implementação.
type TaxpayerRepository interface {
	List() []entity.Taxpayer
	GetByTaxID(taxID string) (entity.Taxpayer, error)
	// Select devolve os contribuintes dos CNPJs pedidos, na ordem pedida. Lista vazia = todos.
	Select(taxIDs []string) ([]entity.Taxpayer, error)
	Create(t entity.Taxpayer) error
	Update(t entity.Taxpayer) error
	Delete(taxID string) error
	DefaultFolder() string
	SetDefaultFolder(folder string) error
}

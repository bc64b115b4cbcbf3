package dto

import (
	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/domain/entity"
	pkgnfse "github.com/Xeyco/Downloader-NFS-NACIONAL/pkg/nfse"
)

// TaxpayerRequest cadastro ou edição de empresa.
type TaxpayerRequest struct {
	Name                string `json:"name"`
	CNPJ                string `json:"cnpj"`
	UsesCertificate     bool   `json:"uses_certificate"`
	Password            string `json:"password"`
	CertificatePath     string `json:"certificate_path"`
	CertificatePassword string `json:"certificate_password"`
}

// ToEntity converte para a entidade.
func (r TaxpayerRequest) ToEntity() entity.Taxpayer {
	mode := entity.AuthModePassword
	if r.UsesCertificate {
		mode = entity.AuthModeCertificate
	}
	return entity.Taxpayer{
		TaxID:               r.CNPJ,
		Name:                r.Name,
		AuthMode:            mode,
		Password:            r.Password,
		CertificatePath:     r.CertificatePath,
		CertificatePassword: r.CertificatePassword,
	}
}

// TaxpayerResponse empresa sem segredos.
type TaxpayerResponse struct {
	Name            string `json:"name"`
	CNPJ            string `json:"cnpj"`
	CNPJFormatted   string `json:"cnpj_formatted"`
	AuthMode        string `json:"auth_mode"`
	CertificatePath string `json:"certificate_path,omitempty"`
}

// NewTaxpayerResponse omite senhas.
func NewTaxpayerResponse(t entity.Taxpayer) TaxpayerResponse {
	return TaxpayerResponse{
		Name:            t.Name,
		CNPJ:            t.TaxID,
		CNPJFormatted:   pkgnfse.FormatCNPJ(t.TaxID),
		AuthMode:        t.AuthMode,
		CertificatePath: t.CertificatePath,
	}
}

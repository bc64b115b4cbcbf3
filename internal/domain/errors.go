package domain

import "errors"

// Erros de domínio (sem dependências externas).
var (
	ErrNotFound            = errors.New("recurso não encontrado")
	ErrAlreadyExists       = errors.New("CNPJ já cadastrado")
	ErrInvalidInput        = errors.New("entrada inválida")
	ErrInvalidCompetence   = errors.New("competência inválida (esperado MM/AAAA)")
	ErrAuthentication      = errors.New("falha de autenticação no portal")
	ErrCertificateNotFound = errors.New("arquivo de certificado não encontrado")
	ErrCertificateInvalid  = errors.New("certificado ilegível ou senha incorreta")
	ErrCancelled           = errors.New("operação cancelada pelo usuário")
	ErrRunInProgress       = errors.New("já existe uma execução em andamento")
	ErrNoResults           = errors.New("nenhuma nota encontrada no período")
)

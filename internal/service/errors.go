package service

import (
	"errors"
	"fmt"
)

// ErrValidacao marca falhas de payload detectadas antes de qualquer
// persistência. O HTTP traduz para 400 com a mensagem embutida.
var ErrValidacao = errors.New("dados inválidos")

func validacao(err error) error {
	return fmt.Errorf("%w: %s", ErrValidacao, err.Error())
}

func validacaoMsg(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidacao, msg)
}

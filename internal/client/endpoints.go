package client

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupported возвращается, если действие недоступно в выбранной версии API.
var ErrUnsupported = errors.New("action not supported by this API version")

// APIVersion задаёт версию REST API бэкенда.
type APIVersion string

const (
	APIv1 APIVersion = "v1"
	APIv2 APIVersion = "v2"
)

// Endpoints содержит пути эндпоинтов для конкретной версии API.
// Пустой путь означает, что действие в этой версии отсутствует.
type Endpoints struct {
	Token        string
	Breaks       string
	Announce     string
	Reimburse    string
	Host         string
	Me           string
	Claims       string
	Claim        string
	ClaimSuccess string

	// LoginReturnsBreaks сообщает, что ответ на вход уже содержит список перерывов.
	LoginReturnsBreaks bool
}

// EndpointsFor возвращает набор эндпоинтов для указанной версии API.
func EndpointsFor(v APIVersion) (Endpoints, error) {
	switch APIVersion(strings.ToLower(string(v))) {
	case APIv1, "":
		return Endpoints{
			Token:              "/api/users/token",
			Breaks:             "/api/breaks",
			Announce:           "/api/breaks/announce",
			Reimburse:          "/api/breaks/reimburse",
			Host:               "/api/breaks/host",
			Me:                 "/api/users/me",
			Claims:             "/api/claims",
			Claim:              "/api/claims/claim",
			ClaimSuccess:       "/api/claims/success",
			LoginReturnsBreaks: true,
		}, nil
	case APIv2:
		return Endpoints{
			Token:        "/api/token",
			Breaks:       "/api/breaks",
			Host:         "/api/breaks/host",
			Me:           "/api/users/me",
			Claims:       "/api/claims",
			Claim:        "/api/claims/claim",
			ClaimSuccess: "/api/claims/success",
		}, nil
	default:
		return Endpoints{}, fmt.Errorf("unknown API version %q", v)
	}
}

func (e Endpoints) require(path, action string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%s: %w", action, ErrUnsupported)
	}
	return path, nil
}

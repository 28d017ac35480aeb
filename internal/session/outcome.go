package session

import "github.com/mmeshcher/cookiebreaks/internal/state"

// Kind различает результаты операций.
type Kind int

const (
	// Success означает, что операция выполнена.
	Success Kind = iota
	// ValidationFailure означает, что входные данные отклонены до отправки запроса.
	ValidationFailure
	// TransportFailure означает, что запрос не удался (сеть, код ответа вне 2xx, некорректный ответ).
	TransportFailure
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case ValidationFailure:
		return "validation failure"
	case TransportFailure:
		return "transport failure"
	default:
		return "unknown"
	}
}

// Сообщения для пользователя.
const (
	StatusLoginFailed     = "Could not log in..."
	StatusListFailed      = "Could not load breaks..."
	StatusAnnounceFailed  = "Could not announce break..."
	StatusReimburseFailed = "Could not reimburse host..."
	StatusHostFailed      = "Could not set host..."
	StatusClaimsFailed    = "Could not load claims..."
	StatusClaimFailed     = "Could not submit claim..."
	StatusCompleteFailed  = "Could not complete claim..."
	StatusNotLoggedIn     = "Not logged in"
	StatusUnsupported     = "Action not supported by this API version"
)

// Outcome описывает результат операции и изменения состояния, которые она порождает.
type Outcome struct {
	Kind    Kind
	Err     error
	Status  string
	Changes []state.Change
}

// OK сообщает, что операция завершилась успешно.
func (o Outcome) OK() bool {
	return o.Kind == Success
}

func succeeded(changes ...state.Change) Outcome {
	return Outcome{
		Kind:    Success,
		Changes: append(changes, state.StatusSet{}),
	}
}

func rejected(err error, status string) Outcome {
	return Outcome{
		Kind:    ValidationFailure,
		Err:     err,
		Status:  status,
		Changes: []state.Change{state.StatusSet{Status: status}},
	}
}

func failed(err error, status string) Outcome {
	return Outcome{
		Kind:    TransportFailure,
		Err:     err,
		Status:  status,
		Changes: []state.Change{state.StatusSet{Status: status}},
	}
}

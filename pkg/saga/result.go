package saga

import "fmt"

// StepResult результат выполнения одного шага саги
type StepResult struct {
	Success bool
	// Data результат шага; для последнего шага становится результатом саги
	Data interface{}
	// CompensationData данные, которые понадобятся для отката шага;
	// сохраняются в контексте под именем шага
	CompensationData interface{}
	// Error причина сбоя (заполняется только при Success == false)
	Error string
}

// StepSucceeded создает успешный результат шага
func StepSucceeded(data interface{}, compensationData interface{}) StepResult {
	return StepResult{
		Success:          true,
		Data:             data,
		CompensationData: compensationData,
	}
}

// StepFailed создает результат шага с ошибкой
func StepFailed(reason string) StepResult {
	return StepResult{
		Success: false,
		Error:   reason,
	}
}

// StepFailedWithCompensation создает результат шага, который не удался,
// но успел применить откатываемые побочные эффекты (например,
// зарезервировать часть позиций). Оркестратор откатит такой шаг первым.
func StepFailedWithCompensation(reason string, compensationData interface{}) StepResult {
	return StepResult{
		Success:          false,
		CompensationData: compensationData,
		Error:            reason,
	}
}

// StepFailedf создает результат шага с форматированной причиной ошибки
func StepFailedf(format string, args ...interface{}) StepResult {
	return StepFailed(fmt.Sprintf(format, args...))
}

// ResultStatus итоговый статус выполнения саги
type ResultStatus string

const (
	// StatusSuccess все шаги выполнены успешно
	StatusSuccess ResultStatus = "success"
	// StatusFailed шаг завершился с ошибкой, предыдущие шаги компенсированы
	// (или компенсировать было нечего)
	StatusFailed ResultStatus = "failed"
	// StatusCompensationFailed шаг завершился с ошибкой, и компенсация одного
	// из предыдущих шагов тоже не удалась; требуется ручное вмешательство
	StatusCompensationFailed ResultStatus = "compensation_failed"
)

// Result итоговый результат выполнения саги. После создания не изменяется.
type Result struct {
	Status ResultStatus
	// Data результат последнего шага (только при StatusSuccess)
	Data interface{}
	// FailedStep имя шага, который не удался; при StatusCompensationFailed —
	// имя шага, компенсация которого не удалась
	FailedStep string
	// Reason причина исходного сбоя
	Reason string
	// WasCompensated true, если компенсация всех предыдущих шагов прошла
	// успешно либо компенсировать было нечего
	WasCompensated bool
	// CompensationError описание сбоя компенсации (только при StatusCompensationFailed)
	CompensationError string
}

// Succeeded создает успешный результат саги
func Succeeded(data interface{}) Result {
	return Result{
		Status: StatusSuccess,
		Data:   data,
	}
}

// FailedAt создает результат саги, завершившейся сбоем шага
func FailedAt(step, reason string, wasCompensated bool) Result {
	return Result{
		Status:         StatusFailed,
		FailedStep:     step,
		Reason:         reason,
		WasCompensated: wasCompensated,
	}
}

// FailedToCompensate создает результат саги, у которой не удалась компенсация
func FailedToCompensate(step, reason, compensationError string) Result {
	return Result{
		Status:            StatusCompensationFailed,
		FailedStep:        step,
		Reason:            reason,
		CompensationError: compensationError,
	}
}

// IsSuccess проверяет, завершилась ли сага успешно
func (r Result) IsSuccess() bool {
	return r.Status == StatusSuccess
}

package saga

import (
	"context"
	"fmt"
	"log"
)

// ExecutionContext ограничение для доменных контекстов саг: контекст должен
// встраивать *Context (или сам быть им) и отдавать его через Base
type ExecutionContext interface {
	Base() *Context
}

// StepFunc выполняет прямое действие шага
type StepFunc[T ExecutionContext] func(ctx context.Context, sc T) StepResult

// CompensateFunc откатывает ранее выполненный шаг
type CompensateFunc[T ExecutionContext] func(ctx context.Context, sc T) error

// Step описывает шаг саги: прямое действие и парную компенсацию.
// Nil-компенсация означает, что шагу откат не требуется.
type Step[T ExecutionContext] struct {
	Name       string
	Execute    StepFunc[T]
	Compensate CompensateFunc[T]
}

// Orchestrator выполняет фиксированную последовательность шагов саги и при
// сбое компенсирует выполненные шаги в обратном порядке. Один оркестратор
// можно переиспользовать для любого числа выполнений; состояние конкретного
// выполнения живет только в переданном контексте.
type Orchestrator[T ExecutionContext] struct {
	steps  []Step[T]
	byName map[string]int
	logger *log.Logger
}

// NewOrchestrator создает оркестратор для заданной последовательности шагов
func NewOrchestrator[T ExecutionContext](steps []Step[T], logger *log.Logger) (*Orchestrator[T], error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("сага должна содержать хотя бы один шаг")
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[Saga] ", log.LstdFlags)
	}

	byName := make(map[string]int, len(steps))
	for i, step := range steps {
		if step.Name == "" {
			return nil, fmt.Errorf("шаг %d не имеет имени", i)
		}
		if step.Execute == nil {
			return nil, fmt.Errorf("шаг %s не имеет прямого действия", step.Name)
		}
		if _, exists := byName[step.Name]; exists {
			return nil, fmt.Errorf("шаг %s объявлен дважды", step.Name)
		}
		byName[step.Name] = i
	}

	return &Orchestrator[T]{
		steps:  steps,
		byName: byName,
		logger: logger,
	}, nil
}

// Execute выполняет шаги саги по порядку. При сбое шага оставшиеся шаги не
// запускаются, а выполненные компенсируются в обратном порядке. Сбой самой
// компенсации останавливает откат на первом же неудавшемся шаге.
// Паника из шага или компенсации за пределы оркестратора не выходит.
func (o *Orchestrator[T]) Execute(ctx context.Context, sc T) Result {
	base := sc.Base()

	var lastData interface{}
	for _, step := range o.steps {
		base.CurrentStep = step.Name
		o.logger.Printf("SagaID=%s: выполняется шаг %s", base.SagaID, step.Name)

		result, panicked := o.runStep(ctx, step, sc)
		if result.Success {
			base.CompleteStep(step.Name, result.CompensationData)
			lastData = result.Data
			continue
		}

		o.logger.Printf("[WARN] SagaID=%s: шаг %s завершился с ошибкой: %s — запуск компенсации",
			base.SagaID, step.Name, result.Error)

		if panicked {
			return o.compensateAfterPanic(ctx, sc, step.Name, result.Error)
		}

		// Шаг, который не удался, но успел применить откатываемые побочные
		// эффекты, откатывается первым — до компенсации выполненных шагов.
		if result.CompensationData != nil && step.Compensate != nil {
			base.RecordCompensationData(step.Name, result.CompensationData)
			base.CurrentStep = "Compensating:" + step.Name
			o.logger.Printf("SagaID=%s: откат частично выполненного шага %s", base.SagaID, step.Name)
			if err := o.runCompensation(ctx, step, sc); err != nil {
				o.logger.Printf("[CRITICAL] SagaID=%s: компенсация шага %s не удалась, требуется ручное вмешательство: %v",
					base.SagaID, step.Name, err)
				return FailedToCompensate(step.Name, result.Error, err.Error())
			}
		}

		failedCompStep, compErr := o.compensate(ctx, sc)
		if compErr != nil {
			o.logger.Printf("[CRITICAL] SagaID=%s: компенсация шага %s не удалась, требуется ручное вмешательство: %v",
				base.SagaID, failedCompStep, compErr)
			return FailedToCompensate(failedCompStep, result.Error, compErr.Error())
		}

		o.logger.Printf("SagaID=%s: сага завершена с компенсацией после сбоя шага %s", base.SagaID, step.Name)
		return FailedAt(step.Name, result.Error, true)
	}

	o.logger.Printf("SagaID=%s: сага завершена успешно", base.SagaID)
	return Succeeded(lastData)
}

// runStep вызывает прямое действие шага, преобразуя панику в сбой шага
func (o *Orchestrator[T]) runStep(ctx context.Context, step Step[T], sc T) (result StepResult, panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Printf("[ERROR] SagaID=%s: паника в шаге %s: %v", sc.Base().SagaID, step.Name, r)
			result = StepFailedf("неожиданная ошибка шага %s: %v", step.Name, r)
			panicked = true
		}
	}()

	result = step.Execute(ctx, sc)
	return result, false
}

// compensate откатывает выполненные шаги в обратном порядке. Возвращает имя
// шага, компенсация которого не удалась, и ошибку; шаги раньше него остаются
// некомпенсированными.
func (o *Orchestrator[T]) compensate(ctx context.Context, sc T) (string, error) {
	base := sc.Base()

	for _, name := range base.StepsToCompensate() {
		step := o.steps[o.byName[name]]
		base.CurrentStep = "Compensating:" + name

		if step.Compensate == nil {
			base.CompensateStep(name)
			continue
		}

		o.logger.Printf("SagaID=%s: компенсируется шаг %s", base.SagaID, name)
		if err := o.runCompensation(ctx, step, sc); err != nil {
			return name, err
		}
		base.CompensateStep(name)
	}

	return "", nil
}

// runCompensation вызывает компенсацию шага, преобразуя панику в ошибку
func (o *Orchestrator[T]) runCompensation(ctx context.Context, step Step[T], sc T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("паника при компенсации шага %s: %v", step.Name, r)
		}
	}()

	return step.Compensate(ctx, sc)
}

// compensateAfterPanic запускает компенсацию после паники прямого шага.
// Если компенсацию не удалось даже запустить, сага завершается без отката.
func (o *Orchestrator[T]) compensateAfterPanic(ctx context.Context, sc T, failedStep, reason string) (result Result) {
	base := sc.Base()

	defer func() {
		if r := recover(); r != nil {
			o.logger.Printf("[CRITICAL] SagaID=%s: не удалось запустить компенсацию после паники шага %s: %v",
				base.SagaID, failedStep, r)
			result = FailedAt(failedStep, reason, false)
		}
	}()

	failedCompStep, compErr := o.compensate(ctx, sc)
	if compErr != nil {
		o.logger.Printf("[CRITICAL] SagaID=%s: компенсация шага %s не удалась, требуется ручное вмешательство: %v",
			base.SagaID, failedCompStep, compErr)
		return FailedToCompensate(failedCompStep, reason, compErr.Error())
	}

	return FailedAt(failedStep, reason, true)
}

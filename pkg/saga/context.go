package saga

import (
	"time"

	"github.com/google/uuid"
)

// Context хранит состояние одного выполнения саги: идентификатор, историю
// шагов и данные для компенсации. Контекст принадлежит ровно одному вызову
// Orchestrator.Execute и не используется из нескольких горутин, поэтому
// синхронизация не требуется. Списки шагов — только для добавления.
type Context struct {
	SagaID      string
	StartedAt   time.Time
	CurrentStep string

	completedSteps   []string
	compensatedSteps []string
	compensationData map[string]interface{}
}

// NewContext создает новый контекст саги со сгенерированным идентификатором
func NewContext() *Context {
	return &Context{
		SagaID:           uuid.NewString(),
		StartedAt:        time.Now().UTC(),
		compensationData: make(map[string]interface{}),
	}
}

// Base возвращает сам контекст; позволяет встраивать Context в
// доменные контексты саг (см. ExecutionContext)
func (c *Context) Base() *Context {
	return c
}

// CompleteStep отмечает шаг как успешно выполненный и сохраняет данные,
// необходимые для его компенсации (nil — компенсации данные не нужны)
func (c *Context) CompleteStep(stepName string, compensationData interface{}) {
	c.completedSteps = append(c.completedSteps, stepName)
	if compensationData != nil {
		c.compensationData[stepName] = compensationData
	}
}

// RecordCompensationData сохраняет данные для компенсации шага, не отмечая
// его выполненным. Используется для шагов, которые не удались, но успели
// применить откатываемые побочные эффекты.
func (c *Context) RecordCompensationData(stepName string, compensationData interface{}) {
	if compensationData != nil {
		c.compensationData[stepName] = compensationData
	}
}

// CompensateStep отмечает шаг как компенсированный
func (c *Context) CompensateStep(stepName string) {
	c.compensatedSteps = append(c.compensatedSteps, stepName)
}

// CompletedSteps возвращает копию списка выполненных шагов в порядке выполнения
func (c *Context) CompletedSteps() []string {
	result := make([]string, len(c.completedSteps))
	copy(result, c.completedSteps)
	return result
}

// CompensatedSteps возвращает копию списка компенсированных шагов
func (c *Context) CompensatedSteps() []string {
	result := make([]string, len(c.compensatedSteps))
	copy(result, c.compensatedSteps)
	return result
}

// CompensationData возвращает данные для компенсации шага
func (c *Context) CompensationData(stepName string) (interface{}, bool) {
	data, ok := c.compensationData[stepName]
	return data, ok
}

// StepsToCompensate возвращает выполненные, но еще не компенсированные шаги
// в порядке, обратном порядку выполнения. Более поздние шаги зависят от
// более ранних и должны откатываться первыми.
func (c *Context) StepsToCompensate() []string {
	compensated := make(map[string]bool, len(c.compensatedSteps))
	for _, name := range c.compensatedSteps {
		compensated[name] = true
	}

	result := make([]string, 0, len(c.completedSteps))
	for i := len(c.completedSteps) - 1; i >= 0; i-- {
		if !compensated[c.completedSteps[i]] {
			result = append(result, c.completedSteps[i])
		}
	}
	return result
}

package memory

import (
	"context"
	engine "crudbench/benchmark/engines/abstract"
	"crudbench/benchmark/engines/enginetest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemory(t *testing.T) {
	enginetest.Run(t, func(t *testing.T) engine.Engine {
		return New()
	})
}

func TestUpdateUnknownID(t *testing.T) {
	assert.Error(t, New().UpdateSimple(context.Background(), "42", "title"))
}

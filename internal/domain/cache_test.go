package domain_test

import (
	"testing"

	"github.com/scanbridge/scanbridge/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestFirstNonBlank(t *testing.T) {
	assert.Equal(t, "", domain.FirstNonBlank())
	assert.Equal(t, "", domain.FirstNonBlank("", " ", "\t"))
	assert.Equal(t, "b", domain.FirstNonBlank("", "b", "c"))
	assert.Equal(t, "a", domain.FirstNonBlank("a", "b"))
}

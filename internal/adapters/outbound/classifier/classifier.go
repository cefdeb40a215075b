package classifier

import (
	"github.com/google/uuid"
	"github.com/scanbridge/scanbridge/internal/domain"
)

// DescriptorClassifier implements domain.ProjectClassifier from the flags
// recorded in the descriptor itself.
type DescriptorClassifier struct{}

func New() *DescriptorClassifier {
	return &DescriptorClassifier{}
}

func (c *DescriptorClassifier) Classify(record domain.ProjectRecord) domain.ProjectStatus {
	switch {
	case record.IsExcluded:
		return domain.StatusExcludeFlagSet
	case record.ID == uuid.Nil:
		return domain.StatusInvalidGuid
	default:
		return domain.StatusValid
	}
}

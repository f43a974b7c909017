package ports

import (
	"github.com/rory-hayes121/tuesday-sub001/internal/domain"
)

type GraphLoaderPort interface {
	Format() string
	Parse(data []byte, filename string) (domain.Graph, error)
}

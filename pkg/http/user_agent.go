package http

import (
	"fmt"

	"github.com/demml/opsml-cli/pkg/global"
)

func UserAgent() string {
	return fmt.Sprintf("opsml-cli/%s", global.Version)
}

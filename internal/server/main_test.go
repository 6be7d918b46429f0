package server

import (
	"os"
	"testing"

	"github.com/emrgen/redline/internal/tester"
)

func TestMain(m *testing.M) {
	tester.Setup()
	code := m.Run()
	tester.Teardown()

	os.Exit(code)
}

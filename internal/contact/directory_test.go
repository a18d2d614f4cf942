package contact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hivoco/flipbook-api/pkg/models"
)

func TestLookupIsCaseInsensitive(t *testing.T) {
	d := NewStaticDirectory([]models.Contact{
		{Name: "Asha Rao", Phone: "+91 98000 00000"},
	}, models.Contact{Name: "Front Desk"})

	assert.Equal(t, "+91 98000 00000", d.Lookup("  asha RAO ").Phone)
	assert.Equal(t, "Front Desk", d.Lookup("someone else").Name)
	assert.Equal(t, "Front Desk", d.Lookup("").Name)
}

func TestDefaultDirectory(t *testing.T) {
	assert.Equal(t, defaultContact, Default().Lookup("anyone"))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contacts.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
default:
  name: Reception
  phone: "000"
contacts:
  - name: Vikram
    email: vikram@example.com
    website: https://vikram.example.com
`), 0o600))

	d, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "vikram@example.com", d.Lookup("VIKRAM").Email)
	assert.Equal(t, "Reception", d.Lookup("nobody").Name)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

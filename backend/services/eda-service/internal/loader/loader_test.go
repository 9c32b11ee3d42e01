package loader

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chargeinsight/backend/services/eda-service/internal/models"
)

const sample = "Start Time,Meter Start (Wh),Meter End(Wh),Meter Total(Wh),Total Duration (s),Charger_name\n" +
	"01.03.2023 14:30,100,500,400,3600,\n" +
	"02.03.2023 08:05,500,900,400,1800,Charger 1\n"

func TestLoadPreservesColumnsAndOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.csv")
	require.NoError(t, os.WriteFile(path, []byte("\ufeff"+sample), 0o600))

	table, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, models.RequiredColumns, table.Header)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, "01.03.2023 14:30", table.Rows[0][0])
	assert.Equal(t, "", table.Rows[0][5])
	assert.Equal(t, "Charger 1", table.Rows[1][5])
	assert.Equal(t, 4, table.ColumnIndex(models.ColTotalDuration))
	assert.Equal(t, -1, table.ColumnIndex("Hour"))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrFileNotFound))
}

func TestReadRejectsMalformedInput(t *testing.T) {
	cases := map[string]string{
		"empty":        "",
		"field count":  "a,b\n1,2\n3\n",
		"bare quote":   "a,b\n1,\"2\n",
		"duplicate":    "a,a\n1,2\n",
		"invalid utf8": "a,b\n1,\xff\n",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Read(strings.NewReader(input), name)
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrParse), err.Error())
		})
	}
}

func TestReadFieldCountErrorKeepsCause(t *testing.T) {
	_, err := Read(strings.NewReader("a,b\n1,2\n3\n"), "short.csv")
	require.Error(t, err)
	assert.True(t, errors.Is(err, csv.ErrFieldCount))

	var modelErr *models.Error
	require.True(t, errors.As(err, &modelErr))
	assert.Equal(t, 2, modelErr.Row)
}

package location

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectionSelect(t *testing.T) {
	t.Run("changing province clears district and ward", func(t *testing.T) {
		sel, err := Selection{}.Select(LevelProvince, "202")
		require.NoError(t, err)
		sel, err = sel.Select(LevelDistrict, "1442")
		require.NoError(t, err)
		sel, err = sel.Select(LevelWard, "20101")
		require.NoError(t, err)
		require.True(t, sel.Complete())

		sel, err = sel.Select(LevelProvince, "201")
		require.NoError(t, err)

		assert.Equal(t, Selection{ProvinceID: 201}, sel)
		assert.Equal(t, LevelDistrict, sel.Next())
	})

	t.Run("changing district clears ward only", func(t *testing.T) {
		sel := Selection{ProvinceID: 202, DistrictID: 1442, WardCode: "20101"}

		sel, err := sel.Select(LevelDistrict, "1443")
		require.NoError(t, err)

		assert.Equal(t, Selection{ProvinceID: 202, DistrictID: 1443}, sel)
	})

	t.Run("empty value clears the level", func(t *testing.T) {
		sel := Selection{ProvinceID: 202, DistrictID: 1442, WardCode: "20101"}

		sel, err := sel.Select(LevelDistrict, "")
		require.NoError(t, err)

		assert.Equal(t, Selection{ProvinceID: 202}, sel)
	})

	t.Run("rejects a level whose parent is unset", func(t *testing.T) {
		_, err := Selection{}.Select(LevelDistrict, "1442")
		assert.ErrorIs(t, err, ErrInvalidSelection)

		_, err = Selection{ProvinceID: 202}.Select(LevelWard, "20101")
		assert.ErrorIs(t, err, ErrInvalidSelection)
	})

	t.Run("rejects non numeric ids", func(t *testing.T) {
		sel := Selection{ProvinceID: 202}

		got, err := sel.Select(LevelDistrict, "abc")

		assert.ErrorIs(t, err, ErrInvalidSelection)
		assert.Equal(t, sel, got)
	})

	t.Run("does not mutate the receiver", func(t *testing.T) {
		sel := Selection{ProvinceID: 202, DistrictID: 1442}

		_, err := sel.Select(LevelProvince, "1")
		require.NoError(t, err)

		assert.Equal(t, Selection{ProvinceID: 202, DistrictID: 1442}, sel)
	})
}

func TestLevelText(t *testing.T) {
	var payload struct {
		Level Level `json:"level"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"level":"Ward"}`), &payload))
	assert.Equal(t, LevelWard, payload.Level)

	data, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"level":"ward"}`, string(data))

	assert.Error(t, json.Unmarshal([]byte(`{"level":"street"}`), &payload))
}

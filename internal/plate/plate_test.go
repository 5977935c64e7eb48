package plate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "粤E9KM03", Normalize("  粤e9km03 "))
	assert.Equal(t, "京A12345", Normalize("京a12345"))
	assert.Equal(t, "", Normalize("   "))
}

func TestValidate(t *testing.T) {
	valid := []string{
		"粤E9KM03",   // standard
		"京A12345",   // standard
		"沪AD12345",  // new-energy small vehicle
		"苏B1234D",   // new-energy large vehicle
		"粤Z12345港",  // Hong Kong suffix
		"京B12345挂",  // trailer suffix
		"川A00011警",  // police suffix
		"使A12345",   // consulate prefix
	}
	for _, p := range valid {
		assert.NoError(t, Validate(p), p)
	}

	invalid := []struct {
		name  string
		plate string
	}{
		{"empty", ""},
		{"too short", "粤E9KM"},
		{"too long", "粤E9KM03456789"},
		{"unknown province", "X英E9KM03"},
		{"city code I", "粤I9KM03"},
		{"city code O", "粤O9KM03"},
		{"serial contains I", "粤EIKM03I"},
		{"lowercase not normalized", "粤e9km03"},
		{"garbage", "HELLO-1"},
	}
	for _, tc := range invalid {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, Validate(tc.plate), ErrInvalidPlate)
		})
	}
}

func TestValidateAfterNormalize(t *testing.T) {
	assert.NoError(t, Validate(Normalize("  粤e9km03 ")))
}

package validate

import (
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bookRequest struct {
	PublishedDate string `validate:"required,datetime=2006-01-02,notfuture"`
}

func TestNotFuture(t *testing.T) {
	v := New()

	assert.NoError(t, v.Struct(bookRequest{PublishedDate: "1965-08-01"}))
	assert.NoError(t, v.Struct(bookRequest{PublishedDate: time.Now().UTC().Format(DateLayout)}))

	err := v.Struct(bookRequest{PublishedDate: time.Now().UTC().AddDate(1, 0, 0).Format(DateLayout)})
	require.Error(t, err)

	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "notfuture", verrs[0].ActualTag())

	err = v.Struct(bookRequest{PublishedDate: "01/08/1965"})
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "datetime", verrs[0].ActualTag())
}

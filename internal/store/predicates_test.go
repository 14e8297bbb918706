package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnExprRejectsMaliciousMetadataPath(t *testing.T) {
	_, _, err := columnExpr(`metadata.a') OR 1=1 --`)
	require.Error(t, err)
}

func TestColumnExprAcceptsOrdinaryDottedPath(t *testing.T) {
	expr, numeric, err := columnExpr("metadata.price")
	require.NoError(t, err)
	assert.False(t, numeric)
	assert.Equal(t, `json_extract(metadata, '$.price')`, expr)
}

func TestJSONExtractRejectsQuoteInSegment(t *testing.T) {
	_, err := jsonExtract("metadata", `foo','bar`)
	require.Error(t, err)
}

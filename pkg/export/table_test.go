package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableCSV(t *testing.T) {
	table := Table{
		Columns: []string{"Student", "Grade"},
		Rows: [][]string{
			{"Ana Souza", "8.50"},
			{"Bruno, Alves", ""},
		},
	}

	out, err := table.CSV()
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Student,Grade", lines[0])
	assert.Equal(t, `"Bruno, Alves",`, lines[2], "cells with commas must be quoted")
}

func TestTableRejectsRaggedRows(t *testing.T) {
	table := Table{
		Columns: []string{"A", "B"},
		Rows:    [][]string{{"only one cell"}},
	}
	_, err := table.CSV()
	require.Error(t, err)

	_, err = table.PDF()
	require.Error(t, err)
}

func TestTablePDFStartsWithMagic(t *testing.T) {
	table := Table{
		Title:   "Transcript",
		Columns: []string{"Subject", "Grade"},
		Rows:    [][]string{{"Calculus I", "7.00"}},
	}
	out, err := table.PDF()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "%PDF"))
}

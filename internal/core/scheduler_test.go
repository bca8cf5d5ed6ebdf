package core

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func makeJobs(n int) []PrintJob {
	jobs := make([]PrintJob, n)
	for i := range jobs {
		jobs[i] = PrintJob{
			Path: fmt.Sprintf("/docs/file%03d.pdf", i),
			Dir:  "/docs",
			Name: fmt.Sprintf("file%03d.pdf", i),
		}
	}
	return jobs
}

func TestPartitionSizes(t *testing.T) {
	batches, err := Partition(makeJobs(23), 10)
	require.NoError(t, err)

	require.Len(t, batches, 3)
	require.Len(t, batches[0], 10)
	require.Len(t, batches[1], 10)
	require.Len(t, batches[2], 3)
}

func TestPartitionReconstructsList(t *testing.T) {
	jobs := makeJobs(17)
	batches, err := Partition(jobs, 4)
	require.NoError(t, err)

	var flat []PrintJob
	for _, b := range batches {
		flat = append(flat, b...)
	}
	require.Equal(t, jobs, flat)
}

func TestPartitionExactMultiple(t *testing.T) {
	batches, err := Partition(makeJobs(20), 10)
	require.NoError(t, err)
	require.Len(t, batches, 2)
	require.Len(t, batches[1], 10)
}

func TestPartitionSingleBatch(t *testing.T) {
	batches, err := Partition(makeJobs(4), 10)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	require.Len(t, batches[0], 4)
}

func TestPartitionEmptyList(t *testing.T) {
	batches, err := Partition(nil, 10)
	require.NoError(t, err)
	require.Empty(t, batches)
}

func TestPartitionInvalidBatchSize(t *testing.T) {
	for _, n := range []int{0, -1, -10} {
		_, err := Partition(makeJobs(3), n)
		require.ErrorIs(t, err, ErrInvalidBatchSize)
	}
}

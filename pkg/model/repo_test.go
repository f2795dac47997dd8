package model

import (
	"testing"

	"github.com/oneconcern/autodataman/pkg/core/status"
	"github.com/oneconcern/autodataman/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type decodeFixture struct {
	name     string
	doc      string
	wantsErr bool
	contains string
}

func repoDecodeCases() []decodeFixture {
	return []decodeFixture{
		{
			name: "valid",
			doc:  `{"_REPO": {"type": "autodataman", "version": "1"}, "_DATASETS": ["era5", "gfs"]}`,
		},
		{
			name: "empty catalog",
			doc:  `{"_REPO": {"type": "autodataman", "version": "1"}, "_DATASETS": []}`,
		},
		{
			name:     "not json",
			doc:      `{"_REPO": `,
			wantsErr: true,
			contains: "invalid JSON",
		},
		{
			name:     "not an object",
			doc:      `["era5"]`,
			wantsErr: true,
		},
		{
			name:     "missing header",
			doc:      `{"_DATASETS": []}`,
			wantsErr: true,
			contains: `"_REPO"`,
		},
		{
			name:     "missing type",
			doc:      `{"_REPO": {"version": "1"}, "_DATASETS": []}`,
			wantsErr: true,
			contains: `"_REPO::type"`,
		},
		{
			name:     "wrong type tag",
			doc:      `{"_REPO": {"type": "catalog", "version": "1"}, "_DATASETS": []}`,
			wantsErr: true,
			contains: `"catalog"`,
		},
		{
			name:     "missing version",
			doc:      `{"_REPO": {"type": "autodataman"}, "_DATASETS": []}`,
			wantsErr: true,
			contains: `"_REPO::version"`,
		},
		{
			name:     "missing datasets",
			doc:      `{"_REPO": {"type": "autodataman", "version": "1"}}`,
			wantsErr: true,
			contains: `"_DATASETS"`,
		},
		{
			name:     "datasets not an array",
			doc:      `{"_REPO": {"type": "autodataman", "version": "1"}, "_DATASETS": "era5"}`,
			wantsErr: true,
			contains: `must be type "array"`,
		},
		{
			name:     "datasets not strings",
			doc:      `{"_REPO": {"type": "autodataman", "version": "1"}, "_DATASETS": [1]}`,
			wantsErr: true,
		},
		{
			// the first violation is reported
			name:     "check order",
			doc:      `{"_REPO": {"version": 1}}`,
			wantsErr: true,
			contains: `"_REPO::type"`,
		},
	}
}

func TestDecodeRepository(t *testing.T) {
	for _, toPin := range repoDecodeCases() {
		testCase := toPin
		t.Run(testCase.name, func(t *testing.T) {
			r, err := DecodeRepository([]byte(testCase.doc))
			if testCase.wantsErr {
				require.Error(t, err)
				assert.Nil(t, r)
				assert.True(t, errors.Is(err, status.ErrMalformedMetadata))
				if testCase.contains != "" {
					assert.Contains(t, err.Error(), testCase.contains)
				}
				return
			}
			require.NoError(t, err)
			require.NotNil(t, r)
			assert.Equal(t, "1", r.Version)
		})
	}
}

func TestRepositoryEncode(t *testing.T) {
	r := NewRepository()
	r.AddDataset("era5")
	r.AddDataset("gfs")

	expected := `{
    "_REPO": {
        "type": "autodataman",
        "version": "1"
    },
    "_DATASETS": [
        "era5",
        "gfs"
    ]
}`
	assert.JSONEq(t, expected, string(r.Encode()))
	assert.Contains(t, string(r.Encode()), "\n    \"_REPO\"")

	// empty catalogs are emitted as an empty array
	assert.Contains(t, string(NewRepository().Encode()), `"_DATASETS": []`)

	decoded, err := DecodeRepository(r.Encode())
	require.NoError(t, err)
	assert.Equal(t, r.Datasets, decoded.Datasets)
	assert.Equal(t, r.Version, decoded.Version)
}

func TestRepositoryLookups(t *testing.T) {
	r := &Repository{Version: RepoVersion, Datasets: []string{"a", "b", "a", "c"}}

	assert.Equal(t, 0, r.FindDataset("a"))
	assert.Equal(t, 1, r.FindDataset("b"))
	assert.Equal(t, 3, r.FindDataset("c"))
	assert.Equal(t, NotFound, r.FindDataset("d"))
	assert.True(t, r.HasDataset("a"))
	assert.False(t, r.HasDataset("d"))

	// removal of an absent name is a no-op
	before := append([]string{}, r.Datasets...)
	r.RemoveDataset("d")
	assert.Equal(t, before, r.Datasets)

	// only the first occurrence is removed
	original := r.Datasets
	r.RemoveDataset("a")
	assert.Equal(t, []string{"b", "a", "c"}, r.Datasets)
	assert.Equal(t, 1, r.FindDataset("a"))

	// the previous sequence is not altered
	assert.Equal(t, []string{"a", "b", "a", "c"}, original)

	r.AddDataset("d")
	assert.Equal(t, 4, r.NumDatasets())
	assert.Equal(t, 3, r.FindDataset("d"))
}

func TestRepositoryMarshalJSON(t *testing.T) {
	r := Repository{Datasets: []string{"x"}}
	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"_REPO":{"type":"autodataman","version":"1"},"_DATASETS":["x"]}`, string(b))

	var decoded Repository
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, []string{"x"}, decoded.Datasets)
}

package core

import (
	"context"

	"github.com/oneconcern/autodataman/pkg/core/status"
	"github.com/oneconcern/autodataman/pkg/model"
)

// DatasetView is the copy of a dataset held by a server or by a local repository.
//
// Err is set when the copy could not be inspected, and Dataset is nil when the dataset is not there.
type DatasetView struct {
	Location string
	Dataset  *model.Dataset
	Err      error
}

// Found tells if the dataset was found at this location
func (v DatasetView) Found() bool {
	return v.Err == nil && v.Dataset != nil
}

// InfoResult holds the server and local copies of a dataset
type InfoResult struct {
	Dataset string
	Server  DatasetView
	Local   DatasetView
}

// Info describes a dataset as seen from a server and from a local repository.
//
// Each side is inspected independently: a failure on one side is reported in its view
// and does not prevent the other side from being described. An empty server or root skips that side.
func Info(ctx context.Context, server, root, dataset string, opts ...Option) (*InfoResult, error) {
	if err := model.ValidateName(dataset); err != nil {
		return nil, err
	}
	settings := defaultSettings(opts)
	result := &InfoResult{
		Dataset: dataset,
		Server:  DatasetView{Location: server},
		Local:   DatasetView{Location: root},
	}

	if server != "" {
		result.Server.Dataset, result.Server.Err = serverDataset(ctx, settings, server, dataset)
	}
	if root != "" {
		result.Local.Dataset, result.Local.Err = localDataset(ctx, settings, root, dataset)
	}
	return result, nil
}

func serverDataset(ctx context.Context, settings *Settings, server, dataset string) (*model.Dataset, error) {
	remote, err := settings.remote(server)
	if err != nil {
		return nil, err
	}
	repo, err := remote.LoadRepository(ctx)
	if err != nil {
		return nil, err
	}
	if !repo.HasDataset(dataset) {
		return nil, nil
	}
	return remote.LoadDataset(ctx, dataset)
}

func localDataset(ctx context.Context, settings *Settings, root, dataset string) (*model.Dataset, error) {
	local := settings.local(root)
	repo, err := loadLocalRepo(ctx, local, root)
	if err != nil {
		return nil, err
	}
	if !repo.HasDataset(dataset) {
		return nil, nil
	}
	d, err := local.LoadDataset(ctx, dataset)
	if err != nil {
		return nil, status.ErrCorruptLocalRepo.Wrapf("%v. %s", err, status.RepairHint)
	}
	return d, nil
}

package shared

import (
	"context"
	"fmt"

	"github.com/Kargones/dbakit/internal/adapter/mssql"
	"github.com/Kargones/dbakit/internal/config"
)

// NewSourceClient создаёт и подключает MSSQL клиент для подключения-источника
// (DK_SOURCE). Вызывающая сторона обязана закрыть клиент через Close().
func NewSourceClient(ctx context.Context, cfg *config.Config) (mssql.Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("конфигурация не может быть nil")
	}
	opts, err := cfg.SourceConnection()
	if err != nil {
		return nil, err
	}
	return connect(ctx, opts)
}

// NewDestinationClient создаёт и подключает MSSQL клиент для целевого
// подключения (DK_DESTINATION, при отсутствии — DK_SOURCE).
func NewDestinationClient(ctx context.Context, cfg *config.Config) (mssql.Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("конфигурация не может быть nil")
	}
	opts, err := cfg.DestinationConnection()
	if err != nil {
		return nil, err
	}
	return connect(ctx, opts)
}

// NewDACClient создаёт и подключает MSSQL клиент через Dedicated Admin
// Connection. Требуется для чтения sys.sysobjvalues (decrypt-object).
func NewDACClient(ctx context.Context, cfg *config.Config) (mssql.Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("конфигурация не может быть nil")
	}
	opts, err := cfg.SourceConnection()
	if err != nil {
		return nil, err
	}
	opts.DAC = true
	return connect(ctx, opts)
}

func connect(ctx context.Context, opts mssql.ClientOptions) (mssql.Client, error) {
	client, err := mssql.NewClient(opts)
	if err != nil {
		return nil, err
	}
	if err := client.Connect(ctx); err != nil {
		return nil, err
	}
	return client, nil
}

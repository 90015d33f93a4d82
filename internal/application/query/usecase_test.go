package query_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrovalle/semillas-api/internal/application/ledger"
	"github.com/agrovalle/semillas-api/internal/application/query"
	"github.com/agrovalle/semillas-api/internal/domain"
	"github.com/agrovalle/semillas-api/internal/domain/entity"
	"github.com/agrovalle/semillas-api/internal/domain/repository"
	"github.com/agrovalle/semillas-api/internal/testutil"
)

const testUserID = "00000000-0000-0000-0000-000000000001"

func entorno() (*query.UseCase, *ledger.UseCase, *testutil.Memoria) {
	mem := testutil.NuevaMemoria()
	q := query.NewUseCase(mem.LoteRepo(), mem.MovimientoRepo(), mem.InventarioRepo())
	lg := ledger.NewUseCase(mem.TxRunner(), mem.LoteRepo(), mem.MovimientoRepo())
	return q, lg, mem
}

func crearLote(t *testing.T, lg *ledger.UseCase, numero, variedad string, kg int64, ingreso time.Time) string {
	t.Helper()
	lote, err := lg.CrearLote(context.Background(), ledger.CrearLoteInput{
		NumeroLote:     numero,
		VariedadID:     variedad,
		UnidadID:       "planta-pergamino",
		OrdenEntradaID: "OE-" + numero,
		KgOriginales:   decimal.NewFromInt(kg),
		FechaIngreso:   ingreso,
		UserID:         testUserID,
	})
	require.NoError(t, err)
	return lote.ID
}

// ──────────────────────────────────────────────────────────────────────────────
// ListarLotes
// ──────────────────────────────────────────────────────────────────────────────

func TestListarLotes_FiltraPorVariedad(t *testing.T) {
	q, lg, _ := entorno()
	crearLote(t, lg, "L-2026-0001", "maiz-dk7088", 1000, time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC))
	crearLote(t, lg, "L-2026-0002", "soja-dm46", 500, time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC))

	lotes, err := q.ListarLotes(context.Background(), repository.FiltroLotes{VariedadID: "maiz-dk7088"})
	require.NoError(t, err)
	require.Len(t, lotes, 1)
	assert.Equal(t, "L-2026-0001", lotes[0].Lote.NumeroLote)
	// Cada fila trae su resumen recalculado desde el libro.
	require.NotNil(t, lotes[0].Resumen)
	assert.True(t, lotes[0].Resumen.Saldo.Equal(decimal.NewFromInt(1000)))
}

func TestListarLotes_RangoDeFechas(t *testing.T) {
	q, lg, _ := entorno()
	crearLote(t, lg, "L-2026-0001", "maiz-dk7088", 1000, time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC))
	crearLote(t, lg, "L-2026-0002", "maiz-dk7088", 500, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))

	desde := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	lotes, err := q.ListarLotes(context.Background(), repository.FiltroLotes{Desde: &desde})
	require.NoError(t, err)
	require.Len(t, lotes, 1)
	assert.Equal(t, "L-2026-0002", lotes[0].Lote.NumeroLote)
}

func TestObtenerLote_Inexistente(t *testing.T) {
	q, _, _ := entorno()
	_, err := q.ObtenerLote(context.Background(), "no-existe")
	assert.ErrorIs(t, err, domain.ErrNoEncontrado)
}

// ──────────────────────────────────────────────────────────────────────────────
// InventarioConsolidado
// ──────────────────────────────────────────────────────────────────────────────

func TestInventarioConsolidado_AgrupaPorVariedadYExcluyeDescartados(t *testing.T) {
	q, lg, mem := entorno()
	crearLote(t, lg, "L-2026-0001", "maiz-dk7088", 1000, time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC))
	crearLote(t, lg, "L-2026-0002", "maiz-dk7088", 500, time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC))
	descartado := crearLote(t, lg, "L-2026-0003", "maiz-dk7088", 300, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, mem.LoteRepo().UpdateEstado(context.Background(), descartado, entity.EstadoDescartado))

	filas, err := q.InventarioConsolidado(context.Background(), "", "")
	require.NoError(t, err)
	require.Len(t, filas, 1)
	assert.Equal(t, "maiz-dk7088", filas[0].VariedadID)
	assert.Equal(t, 2, filas[0].NumLotes,
		"el lote descartado no cuenta en el consolidado")
	assert.True(t, filas[0].TotalKg.Equal(decimal.NewFromInt(1500)))
}

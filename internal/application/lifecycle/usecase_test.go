package lifecycle_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrovalle/semillas-api/internal/application/ledger"
	"github.com/agrovalle/semillas-api/internal/application/lifecycle"
	"github.com/agrovalle/semillas-api/internal/domain"
	"github.com/agrovalle/semillas-api/internal/domain/entity"
	"github.com/agrovalle/semillas-api/internal/testutil"
)

const testUserID = "00000000-0000-0000-0000-000000000001"

// entorno arma el par de casos de uso sobre el mismo almacén en memoria.
func entorno() (*lifecycle.UseCase, *ledger.UseCase, *testutil.Memoria) {
	mem := testutil.NuevaMemoria()
	lc := lifecycle.NewUseCase(mem.TxRunner(), mem.LoteRepo())
	lg := ledger.NewUseCase(mem.TxRunner(), mem.LoteRepo(), mem.MovimientoRepo())
	return lc, lg, mem
}

func crearLote(t *testing.T, lg *ledger.UseCase, kg int64) string {
	t.Helper()
	lote, err := lg.CrearLote(context.Background(), ledger.CrearLoteInput{
		NumeroLote:     "L-2026-0001",
		VariedadID:     "maiz-dk7088",
		UnidadID:       "planta-pergamino",
		OrdenEntradaID: "OE-2026-001",
		KgOriginales:   decimal.NewFromInt(kg),
		UserID:         testUserID,
	})
	require.NoError(t, err)
	return lote.ID
}

// ──────────────────────────────────────────────────────────────────────────────
// CambiarEstado — solo reservado y descartado se fijan a mano
// ──────────────────────────────────────────────────────────────────────────────

func TestCambiarEstado_ReservarDisponible(t *testing.T) {
	lc, lg, mem := entorno()
	id := crearLote(t, lg, 1000)

	resultado, err := lc.CambiarEstado(context.Background(), id, entity.EstadoReservado)
	require.NoError(t, err)
	assert.Equal(t, entity.EstadoReservado, resultado)
	assert.Equal(t, entity.EstadoReservado, mem.Lote(id).Estado)
	assert.True(t, mem.Lote(id).SaldoKg.Equal(decimal.NewFromInt(1000)),
		"la reserva no toca el saldo")
}

func TestCambiarEstado_ReservarVendido_Rechazado(t *testing.T) {
	lc, lg, _ := entorno()
	id := crearLote(t, lg, 1000)
	require.NoError(t, lg.RegistrarSalida(context.Background(), id, decimal.NewFromInt(1000), "OS-100", testUserID))

	_, err := lc.CambiarEstado(context.Background(), id, entity.EstadoReservado)
	assert.ErrorIs(t, err, domain.ErrEstadoLoteInvalido)
}

func TestCambiarEstado_DescartarReservado(t *testing.T) {
	lc, lg, mem := entorno()
	id := crearLote(t, lg, 1000)
	_, err := lc.CambiarEstado(context.Background(), id, entity.EstadoReservado)
	require.NoError(t, err)

	resultado, err := lc.CambiarEstado(context.Background(), id, entity.EstadoDescartado)
	require.NoError(t, err)
	assert.Equal(t, entity.EstadoDescartado, resultado)
	assert.Equal(t, entity.EstadoDescartado, mem.Lote(id).Estado)
}

func TestCambiarEstado_DescartarVendido_Rechazado(t *testing.T) {
	lc, lg, _ := entorno()
	id := crearLote(t, lg, 1000)
	require.NoError(t, lg.RegistrarSalida(context.Background(), id, decimal.NewFromInt(1000), "OS-100", testUserID))

	_, err := lc.CambiarEstado(context.Background(), id, entity.EstadoDescartado)
	assert.ErrorIs(t, err, domain.ErrEstadoLoteInvalido,
		"un lote vendido no se descarta")
}

func TestCambiarEstado_DestinoDerivado_Rechazado(t *testing.T) {
	lc, lg, _ := entorno()
	id := crearLote(t, lg, 1000)

	// Los estados derivados del saldo no se fijan por API.
	for _, destino := range []string{entity.EstadoDisponible, entity.EstadoVendido, entity.EstadoParcialmenteVendido, "otro"} {
		_, err := lc.CambiarEstado(context.Background(), id, destino)
		assert.ErrorIs(t, err, domain.ErrEntradaInvalida, "destino %q", destino)
	}
}

func TestCambiarEstado_LoteInexistente(t *testing.T) {
	lc, _, _ := entorno()
	_, err := lc.CambiarEstado(context.Background(), "no-existe", entity.EstadoReservado)
	assert.ErrorIs(t, err, domain.ErrNoEncontrado)
}

// ──────────────────────────────────────────────────────────────────────────────
// LiberarReserva — vuelve al estado derivado del saldo
// ──────────────────────────────────────────────────────────────────────────────

func TestLiberarReserva_VuelveAlEstadoDerivado(t *testing.T) {
	lc, lg, mem := entorno()
	id := crearLote(t, lg, 1000)
	require.NoError(t, lg.RegistrarSalida(context.Background(), id, decimal.NewFromInt(400), "OS-100", testUserID))
	_, err := lc.CambiarEstado(context.Background(), id, entity.EstadoReservado)
	require.NoError(t, err)

	resultado, err := lc.LiberarReserva(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, entity.EstadoParcialmenteVendido, resultado,
		"con saldo parcial la liberación deriva parcialmente_vendido")
	assert.Equal(t, entity.EstadoParcialmenteVendido, mem.Lote(id).Estado)
}

func TestLiberarReserva_LoteNoReservado(t *testing.T) {
	lc, lg, _ := entorno()
	id := crearLote(t, lg, 1000)

	_, err := lc.LiberarReserva(context.Background(), id)
	assert.ErrorIs(t, err, domain.ErrEstadoLoteInvalido)
}

// ──────────────────────────────────────────────────────────────────────────────
// EliminarLote — contrato de borrado
// ──────────────────────────────────────────────────────────────────────────────

// El alta siempre escribe la entrada inicial, así que un lote creado por el
// flujo normal nunca es borrable: conserva su trazabilidad.
func TestEliminarLote_ConMovimientos_Rechazado(t *testing.T) {
	lc, lg, mem := entorno()
	id := crearLote(t, lg, 1000)

	err := lc.EliminarLote(context.Background(), id)
	assert.ErrorIs(t, err, domain.ErrLoteConMovimientos)
	assert.NotNil(t, mem.Lote(id), "el lote debe seguir existiendo")
}

func TestEliminarLote_Vendido_Rechazado(t *testing.T) {
	lc, lg, _ := entorno()
	id := crearLote(t, lg, 1000)
	require.NoError(t, lg.RegistrarSalida(context.Background(), id, decimal.NewFromInt(1000), "OS-100", testUserID))

	err := lc.EliminarLote(context.Background(), id)
	assert.ErrorIs(t, err, domain.ErrEstadoLoteInvalido,
		"vendido bloquea el borrado antes que el chequeo de movimientos")
}

func TestEliminarLote_SinMovimientos_Borra(t *testing.T) {
	lc, _, mem := entorno()
	// Lote sembrado directo en el repositorio, sin historia (caso de carga
	// administrativa que se deshace antes de operar).
	lote := &entity.Lote{
		ID:           "lote-sin-historia",
		NumeroLote:   "L-2026-0099",
		VariedadID:   "maiz-dk7088",
		UnidadID:     "planta-pergamino",
		KgOriginales: decimal.NewFromInt(100),
		SaldoKg:      decimal.NewFromInt(100),
		Estado:       entity.EstadoDisponible,
	}
	require.NoError(t, mem.LoteRepo().Create(context.Background(), lote))

	err := lc.EliminarLote(context.Background(), lote.ID)
	require.NoError(t, err)
	assert.Nil(t, mem.Lote(lote.ID))
}

func TestEliminarLote_Inexistente(t *testing.T) {
	lc, _, _ := entorno()
	err := lc.EliminarLote(context.Background(), "no-existe")
	assert.ErrorIs(t, err, domain.ErrNoEncontrado)
}

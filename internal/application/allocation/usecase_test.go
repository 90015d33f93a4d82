package allocation_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrovalle/semillas-api/internal/application/allocation"
	"github.com/agrovalle/semillas-api/internal/application/ledger"
	"github.com/agrovalle/semillas-api/internal/domain"
	"github.com/agrovalle/semillas-api/internal/domain/entity"
	"github.com/agrovalle/semillas-api/internal/testutil"
)

const (
	testUserID   = "00000000-0000-0000-0000-000000000001"
	testVariedad = "maiz-dk7088"
	testUnidad   = "planta-pergamino"
)

func entorno() (*allocation.UseCase, *ledger.UseCase, *testutil.Memoria) {
	mem := testutil.NuevaMemoria()
	alloc := allocation.NewUseCase(mem.TxRunner())
	lg := ledger.NewUseCase(mem.TxRunner(), mem.LoteRepo(), mem.MovimientoRepo())
	return alloc, lg, mem
}

// crearLote da de alta un lote con fecha de ingreso explícita (la selección
// FIFO depende de ella).
func crearLote(t *testing.T, lg *ledger.UseCase, numero string, kg int64, ingreso time.Time) string {
	t.Helper()
	lote, err := lg.CrearLote(context.Background(), ledger.CrearLoteInput{
		NumeroLote:     numero,
		VariedadID:     testVariedad,
		UnidadID:       testUnidad,
		OrdenEntradaID: "OE-" + numero,
		KgOriginales:   decimal.NewFromInt(kg),
		FechaIngreso:   ingreso,
		UserID:         testUserID,
	})
	require.NoError(t, err)
	return lote.ID
}

func asignar(alloc *allocation.UseCase, ordenID string, kg int64) ([]allocation.Retiro, error) {
	return alloc.Asignar(context.Background(), allocation.AsignarInput{
		OrdenSalidaID: ordenID,
		VariedadID:    testVariedad,
		UnidadID:      testUnidad,
		CantidadKg:    decimal.NewFromInt(kg),
		UserID:        testUserID,
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// Asignación sobre un solo lote
// ──────────────────────────────────────────────────────────────────────────────

func TestAsignar_UnLote_CicloCompleto(t *testing.T) {
	alloc, lg, mem := entorno()
	id := crearLote(t, lg, "L-2026-0001", 1000, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))

	// 400 de 1000: el lote queda parcialmente vendido.
	retiros, err := asignar(alloc, "OS-100", 400)
	require.NoError(t, err)
	require.Len(t, retiros, 1)
	assert.Equal(t, id, retiros[0].LoteID)
	assert.Equal(t, "L-2026-0001", retiros[0].NumeroLote)
	assert.True(t, retiros[0].CantidadKg.Equal(decimal.NewFromInt(400)))
	assert.Equal(t, entity.EstadoParcialmenteVendido, mem.Lote(id).Estado)

	// Los 600 restantes: el lote queda vendido.
	retiros, err = asignar(alloc, "OS-101", 600)
	require.NoError(t, err)
	require.Len(t, retiros, 1)
	assert.True(t, mem.Lote(id).SaldoKg.IsZero())
	assert.Equal(t, entity.EstadoVendido, mem.Lote(id).Estado)

	// Un kilo más: sin stock, con el faltante exacto en el error.
	_, err = asignar(alloc, "OS-102", 1)
	var stockErr *domain.StockInsuficienteError
	require.ErrorAs(t, err, &stockErr)
	assert.True(t, stockErr.SolicitadoKg.Equal(decimal.NewFromInt(1)))
	assert.True(t, stockErr.DisponibleKg.IsZero())
	assert.True(t, stockErr.FaltanteKg().Equal(decimal.NewFromInt(1)))
	assert.ErrorIs(t, err, domain.ErrStockInsuficiente,
		"el error tipado debe desenrollar al sentinel")
}

// ──────────────────────────────────────────────────────────────────────────────
// Selección FIFO y lotes preferidos
// ──────────────────────────────────────────────────────────────────────────────

func TestAsignar_DosLotes_FIFOPorFechaDeIngreso(t *testing.T) {
	alloc, lg, mem := entorno()
	viejo := crearLote(t, lg, "L-2026-0001", 300, time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC))
	nuevo := crearLote(t, lg, "L-2026-0002", 300, time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC))

	retiros, err := asignar(alloc, "OS-100", 500)
	require.NoError(t, err)
	require.Len(t, retiros, 2)

	// El lote más antiguo se drena entero primero.
	assert.Equal(t, viejo, retiros[0].LoteID)
	assert.True(t, retiros[0].CantidadKg.Equal(decimal.NewFromInt(300)))
	assert.Equal(t, nuevo, retiros[1].LoteID)
	assert.True(t, retiros[1].CantidadKg.Equal(decimal.NewFromInt(200)))

	assert.Equal(t, entity.EstadoVendido, mem.Lote(viejo).Estado)
	assert.Equal(t, entity.EstadoParcialmenteVendido, mem.Lote(nuevo).Estado)
	assert.True(t, mem.Lote(nuevo).SaldoKg.Equal(decimal.NewFromInt(100)))
}

func TestAsignar_LotesPreferidos_SeDrenanPrimero(t *testing.T) {
	alloc, lg, _ := entorno()
	viejo := crearLote(t, lg, "L-2026-0001", 300, time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC))
	nuevo := crearLote(t, lg, "L-2026-0002", 300, time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC))

	// El caller prefiere el lote nuevo; el viejo solo completa el resto.
	retiros, err := alloc.Asignar(context.Background(), allocation.AsignarInput{
		OrdenSalidaID:   "OS-100",
		VariedadID:      testVariedad,
		UnidadID:        testUnidad,
		CantidadKg:      decimal.NewFromInt(400),
		LotesPreferidos: []string{nuevo},
		UserID:          testUserID,
	})
	require.NoError(t, err)
	require.Len(t, retiros, 2)
	assert.Equal(t, nuevo, retiros[0].LoteID)
	assert.True(t, retiros[0].CantidadKg.Equal(decimal.NewFromInt(300)))
	assert.Equal(t, viejo, retiros[1].LoteID)
	assert.True(t, retiros[1].CantidadKg.Equal(decimal.NewFromInt(100)))
}

func TestAsignar_LoteReservadoQuedaFuera(t *testing.T) {
	alloc, lg, mem := entorno()
	reservado := crearLote(t, lg, "L-2026-0001", 300, time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC))
	libre := crearLote(t, lg, "L-2026-0002", 300, time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, mem.LoteRepo().UpdateEstado(context.Background(), reservado, entity.EstadoReservado))

	retiros, err := asignar(alloc, "OS-100", 300)
	require.NoError(t, err)
	require.Len(t, retiros, 1)
	assert.Equal(t, libre, retiros[0].LoteID,
		"un lote reservado no participa de la asignación automática")
}

// ──────────────────────────────────────────────────────────────────────────────
// Todo-o-nada
// ──────────────────────────────────────────────────────────────────────────────

func TestAsignar_StockInsuficiente_NoEscribeNada(t *testing.T) {
	alloc, lg, mem := entorno()
	a := crearLote(t, lg, "L-2026-0001", 300, time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC))
	b := crearLote(t, lg, "L-2026-0002", 300, time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC))

	_, err := asignar(alloc, "OS-100", 700)
	var stockErr *domain.StockInsuficienteError
	require.ErrorAs(t, err, &stockErr)
	assert.True(t, stockErr.DisponibleKg.Equal(decimal.NewFromInt(600)))
	assert.True(t, stockErr.FaltanteKg().Equal(decimal.NewFromInt(100)))

	// Ningún lote se tocó y el libro solo tiene las dos entradas iniciales.
	assert.True(t, mem.Lote(a).SaldoKg.Equal(decimal.NewFromInt(300)))
	assert.True(t, mem.Lote(b).SaldoKg.Equal(decimal.NewFromInt(300)))
	assert.Len(t, mem.Movimientos(), 2,
		"una asignación fallida no deja movimientos parciales")
}

func TestAsignar_OrdenDuplicada(t *testing.T) {
	alloc, lg, _ := entorno()
	crearLote(t, lg, "L-2026-0001", 1000, time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC))

	_, err := asignar(alloc, "OS-100", 100)
	require.NoError(t, err)

	_, err = asignar(alloc, "OS-100", 100)
	assert.ErrorIs(t, err, domain.ErrDuplicado,
		"la misma orden de salida no se asigna dos veces")
}

func TestAsignar_EntradaInvalida(t *testing.T) {
	alloc, _, _ := entorno()

	_, err := alloc.Asignar(context.Background(), allocation.AsignarInput{
		VariedadID: testVariedad,
		UnidadID:   testUnidad,
		CantidadKg: decimal.NewFromInt(10),
	})
	assert.ErrorIs(t, err, domain.ErrEntradaInvalida, "falta la orden de salida")

	_, err = asignar(alloc, "OS-100", 0)
	assert.ErrorIs(t, err, domain.ErrCantidadInvalida)
}

// ──────────────────────────────────────────────────────────────────────────────
// Cancelación — entradas compensatorias, nunca se borran salidas
// ──────────────────────────────────────────────────────────────────────────────

func TestCancelar_RestauraSaldosConEntradasCompensatorias(t *testing.T) {
	alloc, lg, mem := entorno()
	a := crearLote(t, lg, "L-2026-0001", 300, time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC))
	b := crearLote(t, lg, "L-2026-0002", 300, time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC))

	_, err := asignar(alloc, "OS-100", 500)
	require.NoError(t, err)

	require.NoError(t, alloc.Cancelar(context.Background(), "OS-100", testUserID))

	// Saldos y estados restaurados.
	assert.True(t, mem.Lote(a).SaldoKg.Equal(decimal.NewFromInt(300)))
	assert.True(t, mem.Lote(b).SaldoKg.Equal(decimal.NewFromInt(300)))
	assert.Equal(t, entity.EstadoDisponible, mem.Lote(a).Estado,
		"la reversión completa devuelve el lote vendido a disponible")
	assert.Equal(t, entity.EstadoDisponible, mem.Lote(b).Estado)

	// El historial queda completo: 2 entradas iniciales + 2 salidas +
	// 2 entradas compensatorias. Nada se borra.
	movs := mem.Movimientos()
	require.Len(t, movs, 6)
	compensatorias := 0
	for _, m := range movs {
		if m.Tipo == entity.MovimientoEntrada && m.TipoOrden == entity.OrdenTipoSalida {
			compensatorias++
			assert.Equal(t, "OS-100", m.OrdenOrigenID)
		}
	}
	assert.Equal(t, 2, compensatorias,
		"debe haber una entrada compensatoria por cada retiro")
}

func TestCancelar_DosVeces_Conflicto(t *testing.T) {
	alloc, lg, _ := entorno()
	crearLote(t, lg, "L-2026-0001", 1000, time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC))
	_, err := asignar(alloc, "OS-100", 400)
	require.NoError(t, err)

	require.NoError(t, alloc.Cancelar(context.Background(), "OS-100", testUserID))
	err = alloc.Cancelar(context.Background(), "OS-100", testUserID)
	assert.ErrorIs(t, err, domain.ErrConflicto,
		"una orden ya cancelada no se cancela de nuevo")
}

func TestCancelar_OrdenInexistente(t *testing.T) {
	alloc, _, _ := entorno()
	err := alloc.Cancelar(context.Background(), "no-existe", testUserID)
	assert.ErrorIs(t, err, domain.ErrNoEncontrado)
}

// Cancelar tras revender parte del lote: las entradas compensatorias se suman
// al saldo vigente, sin importar qué pasó en el medio.
func TestCancelar_DespuesDeOtrasVentas(t *testing.T) {
	alloc, lg, mem := entorno()
	id := crearLote(t, lg, "L-2026-0001", 1000, time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC))

	_, err := asignar(alloc, "OS-100", 400) // saldo 600
	require.NoError(t, err)
	_, err = asignar(alloc, "OS-101", 500) // saldo 100
	require.NoError(t, err)

	require.NoError(t, alloc.Cancelar(context.Background(), "OS-100", testUserID))
	assert.True(t, mem.Lote(id).SaldoKg.Equal(decimal.NewFromInt(500)),
		"100 vigentes + 400 devueltos")
}

// ──────────────────────────────────────────────────────────────────────────────
// Concurrencia — nunca se sobrevende
// ──────────────────────────────────────────────────────────────────────────────

func TestAsignar_Concurrente_NoSobrevende(t *testing.T) {
	alloc, lg, mem := entorno()
	id := crearLote(t, lg, "L-2026-0001", 400, time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC))

	const (
		solicitantes = 50
		kgPorOrden   = 10
	)

	var wg sync.WaitGroup
	exitos := make(chan struct{}, solicitantes)
	fallos := make(chan error, solicitantes)
	for i := 0; i < solicitantes; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := asignar(alloc, fmt.Sprintf("OS-%03d", n), kgPorOrden)
			if err != nil {
				fallos <- err
				return
			}
			exitos <- struct{}{}
		}(i)
	}
	wg.Wait()
	close(exitos)
	close(fallos)

	// Con 400 kg y órdenes de 10 kg, exactamente 40 pueden confirmarse.
	assert.Len(t, exitos, 40, "deben confirmarse exactamente 400/10 órdenes")
	for err := range fallos {
		assert.ErrorIs(t, err, domain.ErrStockInsuficiente,
			"todo rechazo debe ser por falta de stock, nunca por corrupción")
	}

	// El lote terminó exactamente en cero y el libro cuadra.
	lote := mem.Lote(id)
	assert.True(t, lote.SaldoKg.IsZero(), "saldo final: %s", lote.SaldoKg)
	assert.Equal(t, entity.EstadoVendido, lote.Estado)

	total := decimal.Zero
	for _, m := range mem.Movimientos() {
		if m.Tipo == entity.MovimientoSalida {
			total = total.Add(m.CantidadKg)
		}
	}
	assert.True(t, total.Equal(decimal.NewFromInt(400)),
		"la suma de salidas (%s) no puede exceder los kg originales", total)
}

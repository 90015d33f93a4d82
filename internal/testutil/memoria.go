// Package testutil provee repositorios en memoria y un TxRunner serializado
// para probar los casos de uso sin PostgreSQL. El TxRunner toma un lock
// global y restaura un snapshot ante error, emulando la atomicidad y el
// rollback de una transacción real.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/agrovalle/semillas-api/internal/application/ledger"
	"github.com/agrovalle/semillas-api/internal/domain"
	"github.com/agrovalle/semillas-api/internal/domain/entity"
	domledger "github.com/agrovalle/semillas-api/internal/domain/ledger"
	"github.com/agrovalle/semillas-api/internal/domain/repository"
)

// Memoria es el almacén compartido por los repositorios fake.
type Memoria struct {
	mu           sync.Mutex
	lotes        map[string]entity.Lote
	movimientos  []entity.Movimiento
	ordenes      map[string]entity.OrdenSalida
	asignaciones []entity.Asignacion
	seq          int // desempate estable para movimientos con igual timestamp
}

// NuevaMemoria construye el almacén vacío.
func NuevaMemoria() *Memoria {
	return &Memoria{
		lotes:   make(map[string]entity.Lote),
		ordenes: make(map[string]entity.OrdenSalida),
	}
}

// LoteRepo devuelve el fake de LoteRepository sobre este almacén.
func (m *Memoria) LoteRepo() repository.LoteRepository { return &loteRepo{m} }

// MovimientoRepo devuelve el fake de MovimientoRepository.
func (m *Memoria) MovimientoRepo() repository.MovimientoRepository { return &movimientoRepo{m} }

// OrdenRepo devuelve el fake de OrdenSalidaRepository.
func (m *Memoria) OrdenRepo() repository.OrdenSalidaRepository { return &ordenRepo{m} }

// InventarioRepo devuelve el fake de InventarioRepository.
func (m *Memoria) InventarioRepo() repository.InventarioRepository { return &inventarioRepo{m} }

// TxRunner devuelve un runner que serializa las transacciones con un mutex y
// revierte el almacén al snapshot previo si fn retorna error.
func (m *Memoria) TxRunner() ledger.TxRunner { return &txRunner{m} }

// Lote devuelve una copia del lote almacenado (nil si no existe). Para asserts.
func (m *Memoria) Lote(id string) *entity.Lote {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.lotes[id]; ok {
		return &l
	}
	return nil
}

// Movimientos devuelve una copia de todos los movimientos. Para asserts.
func (m *Memoria) Movimientos() []entity.Movimiento {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]entity.Movimiento, len(m.movimientos))
	copy(out, m.movimientos)
	return out
}

type txRunner struct{ m *Memoria }

func (r *txRunner) Run(ctx context.Context, fn func(
	loteRepo repository.LoteRepository,
	movRepo repository.MovimientoRepository,
	ordenRepo repository.OrdenSalidaRepository,
) error) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	snapshot := r.m.clonar()
	if err := fn(&loteRepo{r.m}, &movimientoRepo{r.m}, &ordenRepo{r.m}); err != nil {
		r.m.restaurar(snapshot)
		return err
	}
	return nil
}

// clonar copia el estado completo (las entidades son structs por valor).
func (m *Memoria) clonar() *Memoria {
	c := &Memoria{
		lotes:        make(map[string]entity.Lote, len(m.lotes)),
		movimientos:  make([]entity.Movimiento, len(m.movimientos)),
		ordenes:      make(map[string]entity.OrdenSalida, len(m.ordenes)),
		asignaciones: make([]entity.Asignacion, len(m.asignaciones)),
		seq:          m.seq,
	}
	for k, v := range m.lotes {
		c.lotes[k] = v
	}
	copy(c.movimientos, m.movimientos)
	for k, v := range m.ordenes {
		c.ordenes[k] = v
	}
	copy(c.asignaciones, m.asignaciones)
	return c
}

func (m *Memoria) restaurar(s *Memoria) {
	m.lotes = s.lotes
	m.movimientos = s.movimientos
	m.ordenes = s.ordenes
	m.asignaciones = s.asignaciones
	m.seq = s.seq
}

// ── LoteRepository ────────────────────────────────────────────────────────────

type loteRepo struct{ m *Memoria }

func (r *loteRepo) Create(_ context.Context, lote *entity.Lote) error {
	for _, l := range r.m.lotes {
		if l.NumeroLote == lote.NumeroLote {
			return domain.ErrDuplicado
		}
	}
	r.m.lotes[lote.ID] = *lote
	return nil
}

func (r *loteRepo) GetByID(_ context.Context, id string) (*entity.Lote, error) {
	if l, ok := r.m.lotes[id]; ok {
		return &l, nil
	}
	return nil, nil
}

func (r *loteRepo) GetForUpdate(ctx context.Context, id string) (*entity.Lote, error) {
	// El lock de fila real lo emula el mutex global del TxRunner.
	return r.GetByID(ctx, id)
}

func (r *loteRepo) UpdateSaldoEstado(_ context.Context, id string, saldoKg decimal.Decimal, estado string) error {
	l, ok := r.m.lotes[id]
	if !ok {
		return domain.ErrNoEncontrado
	}
	l.SaldoKg = saldoKg
	l.Estado = estado
	l.UpdatedAt = time.Now()
	r.m.lotes[id] = l
	return nil
}

func (r *loteRepo) UpdateEstado(_ context.Context, id string, estado string) error {
	l, ok := r.m.lotes[id]
	if !ok {
		return domain.ErrNoEncontrado
	}
	l.Estado = estado
	l.UpdatedAt = time.Now()
	r.m.lotes[id] = l
	return nil
}

func (r *loteRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.m.lotes[id]; !ok {
		return domain.ErrNoEncontrado
	}
	delete(r.m.lotes, id)
	return nil
}

func (r *loteRepo) List(_ context.Context, filtro repository.FiltroLotes) ([]*entity.Lote, error) {
	var out []*entity.Lote
	for _, l := range r.m.lotes {
		l := l
		if filtro.VariedadID != "" && l.VariedadID != filtro.VariedadID {
			continue
		}
		if filtro.UnidadID != "" && l.UnidadID != filtro.UnidadID {
			continue
		}
		if filtro.Estado != "" && l.Estado != filtro.Estado {
			continue
		}
		if filtro.Desde != nil && l.FechaIngreso.Before(*filtro.Desde) {
			continue
		}
		if filtro.Hasta != nil && l.FechaIngreso.After(*filtro.Hasta) {
			continue
		}
		out = append(out, &l)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].FechaIngreso.Equal(out[j].FechaIngreso) {
			return out[i].FechaIngreso.After(out[j].FechaIngreso)
		}
		return out[i].ID < out[j].ID
	})
	return paginar(out, filtro.Limit, filtro.Offset), nil
}

func (r *loteRepo) Candidatos(_ context.Context, variedadID, unidadID string) ([]*entity.Lote, error) {
	var out []*entity.Lote
	for _, l := range r.m.lotes {
		l := l
		if l.VariedadID != variedadID || l.UnidadID != unidadID {
			continue
		}
		if !domledger.EsAsignable(l.Estado) || !l.SaldoKg.GreaterThan(decimal.Zero) {
			continue
		}
		out = append(out, &l)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].FechaIngreso.Equal(out[j].FechaIngreso) {
			return out[i].FechaIngreso.Before(out[j].FechaIngreso)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func paginar(lotes []*entity.Lote, limit, offset int) []*entity.Lote {
	if offset >= len(lotes) {
		return nil
	}
	lotes = lotes[offset:]
	if limit > 0 && limit < len(lotes) {
		lotes = lotes[:limit]
	}
	return lotes
}

// ── MovimientoRepository ──────────────────────────────────────────────────────

type movimientoRepo struct{ m *Memoria }

func (r *movimientoRepo) Create(_ context.Context, mov *entity.Movimiento) error {
	r.m.seq++
	r.m.movimientos = append(r.m.movimientos, *mov)
	return nil
}

func (r *movimientoRepo) ListByLote(_ context.Context, loteID string, desde, hasta *time.Time, limit, offset int) ([]*entity.Movimiento, error) {
	var out []*entity.Movimiento
	for i := range r.m.movimientos {
		mov := r.m.movimientos[i]
		if mov.LoteID != loteID {
			continue
		}
		if desde != nil && mov.CreatedAt.Before(*desde) {
			continue
		}
		if hasta != nil && mov.CreatedAt.After(*hasta) {
			continue
		}
		out = append(out, &mov)
	}
	// El slice ya está en orden de inserción (el desempate estable real).
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *movimientoRepo) CountByLote(_ context.Context, loteID string) (int, error) {
	n := 0
	for i := range r.m.movimientos {
		if r.m.movimientos[i].LoteID == loteID {
			n++
		}
	}
	return n, nil
}

func (r *movimientoRepo) ResumenSaldo(_ context.Context, loteID string) (*entity.ResumenSaldo, error) {
	resumen := entity.ResumenSaldo{
		LoteID:        loteID,
		TotalEntradas: decimal.Zero,
		TotalSalidas:  decimal.Zero,
	}
	for i := range r.m.movimientos {
		mov := r.m.movimientos[i]
		if mov.LoteID != loteID {
			continue
		}
		resumen.NumMovimientos++
		if mov.Tipo == entity.MovimientoEntrada {
			resumen.TotalEntradas = resumen.TotalEntradas.Add(mov.CantidadKg)
		} else {
			resumen.TotalSalidas = resumen.TotalSalidas.Add(mov.CantidadKg)
		}
	}
	resumen.Saldo = resumen.TotalEntradas.Sub(resumen.TotalSalidas)
	return &resumen, nil
}

// ── OrdenSalidaRepository ─────────────────────────────────────────────────────

type ordenRepo struct{ m *Memoria }

func (r *ordenRepo) Create(_ context.Context, orden *entity.OrdenSalida) error {
	if _, ok := r.m.ordenes[orden.ID]; ok {
		return domain.ErrDuplicado
	}
	r.m.ordenes[orden.ID] = *orden
	return nil
}

func (r *ordenRepo) GetByID(_ context.Context, id string) (*entity.OrdenSalida, error) {
	if o, ok := r.m.ordenes[id]; ok {
		return &o, nil
	}
	return nil, nil
}

func (r *ordenRepo) UpdateEstado(_ context.Context, id string, estado string) error {
	o, ok := r.m.ordenes[id]
	if !ok {
		return domain.ErrNoEncontrado
	}
	o.Estado = estado
	r.m.ordenes[id] = o
	return nil
}

func (r *ordenRepo) CreateAsignacion(_ context.Context, a *entity.Asignacion) error {
	r.m.asignaciones = append(r.m.asignaciones, *a)
	return nil
}

func (r *ordenRepo) ListAsignaciones(_ context.Context, ordenSalidaID string) ([]*entity.Asignacion, error) {
	var out []*entity.Asignacion
	for i := range r.m.asignaciones {
		a := r.m.asignaciones[i]
		if a.OrdenSalidaID == ordenSalidaID {
			out = append(out, &a)
		}
	}
	return out, nil
}

// ── InventarioRepository ──────────────────────────────────────────────────────

type inventarioRepo struct{ m *Memoria }

func (r *inventarioRepo) Consolidado(_ context.Context, variedadID, unidadID string) ([]repository.SaldoConsolidado, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	tipo := func(l entity.Lote) string { return l.VariedadID + "|" + l.UnidadID }
	grupos := make(map[string]*repository.SaldoConsolidado)
	for _, l := range r.m.lotes {
		if l.Estado == entity.EstadoDescartado {
			continue
		}
		if variedadID != "" && l.VariedadID != variedadID {
			continue
		}
		if unidadID != "" && l.UnidadID != unidadID {
			continue
		}
		k := tipo(l)
		g, ok := grupos[k]
		if !ok {
			g = &repository.SaldoConsolidado{VariedadID: l.VariedadID, UnidadID: l.UnidadID, TotalKg: decimal.Zero}
			grupos[k] = g
		}
		g.TotalKg = g.TotalKg.Add(l.SaldoKg)
		g.NumLotes++
	}
	claves := make([]string, 0, len(grupos))
	for k := range grupos {
		claves = append(claves, k)
	}
	sort.Strings(claves)
	out := make([]repository.SaldoConsolidado, 0, len(claves))
	for _, k := range claves {
		out = append(out, *grupos[k])
	}
	return out, nil
}

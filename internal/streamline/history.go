package streamline

import "math"

// History records the full per-step trace of a streamline, one entry per
// accepted integrator step including the initial condition. All columns stay
// mutually consistent in length.
type History struct {
	T      []float64
	R      []float64
	Z      []float64
	VR     []float64
	VZ     []float64
	VT     []float64
	Rho    []float64
	TauDr  []float64
	TauUV  []float64
	TauX   []float64
	TauEff []float64
	Xi     []float64
	FM     []float64
	DvDr   []float64
	AR     []float64
	AZ     []float64
	VEsc   []float64
}

// Len returns the number of recorded steps.
func (h *History) Len() int { return len(h.T) }

func (s *Streamline) appendHistory(t float64) {
	h := &s.hist
	h.T = append(h.T, t)
	h.R = append(h.R, s.r)
	h.Z = append(h.Z, s.z)
	h.VR = append(h.VR, s.vR)
	h.VZ = append(h.VZ, s.vZ)
	h.VT = append(h.VT, s.vT)
	h.Rho = append(h.Rho, s.rho)
	h.TauDr = append(h.TauDr, s.tauDr)
	h.TauUV = append(h.TauUV, s.tauUV)
	h.TauX = append(h.TauX, s.tauX)
	h.TauEff = append(h.TauEff, s.tauEff)
	h.Xi = append(h.Xi, s.xi)
	h.FM = append(h.FM, s.fm)
	h.DvDr = append(h.DvDr, s.dvDr)
	h.AR = append(h.AR, s.aR)
	h.AZ = append(h.AZ, s.aZ)
	h.VEsc = append(h.VEsc, s.ctx.VEsc(math.Hypot(s.r, s.z)))
}

// Columns returns the history column names in storage order.
func Columns() []string {
	return []string{
		"t", "r", "z", "v_r", "v_z", "v_t", "rho", "tau_dr",
		"tau_uv", "tau_x", "tau_eff", "xi", "fm", "dv_dr",
		"a_r", "a_z", "v_esc",
	}
}

// Row returns history entry i in the same order as Columns.
func (h *History) Row(i int) []float64 {
	return []float64{
		h.T[i], h.R[i], h.Z[i], h.VR[i], h.VZ[i], h.VT[i], h.Rho[i],
		h.TauDr[i], h.TauUV[i], h.TauX[i], h.TauEff[i], h.Xi[i],
		h.FM[i], h.DvDr[i], h.AR[i], h.AZ[i], h.VEsc[i],
	}
}

// AppendRow appends one entry from storage order, the inverse of Row.
func (h *History) AppendRow(row []float64) {
	h.T = append(h.T, row[0])
	h.R = append(h.R, row[1])
	h.Z = append(h.Z, row[2])
	h.VR = append(h.VR, row[3])
	h.VZ = append(h.VZ, row[4])
	h.VT = append(h.VT, row[5])
	h.Rho = append(h.Rho, row[6])
	h.TauDr = append(h.TauDr, row[7])
	h.TauUV = append(h.TauUV, row[8])
	h.TauX = append(h.TauX, row[9])
	h.TauEff = append(h.TauEff, row[10])
	h.Xi = append(h.Xi, row[11])
	h.FM = append(h.FM, row[12])
	h.DvDr = append(h.DvDr, row[13])
	h.AR = append(h.AR, row[14])
	h.AZ = append(h.AZ, row[15])
	h.VEsc = append(h.VEsc, row[16])
}

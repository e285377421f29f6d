// Package wind supplies the disc and black hole environment a streamline
// evolves in: geometry, luminosities and the velocity/opacity relations
// shared by the radiation field and the streamline integrator.
package wind

import "math"

// Context exposes the global disc/black-hole scalars and relations consumed
// by the radiation field and the streamline integrator. Implementations must
// be safe for concurrent read-only use across streamlines.
type Context interface {
	// RInit is the inner edge of the wind launching region [Rg].
	RInit() float64
	// RIn and ROut bracket the wind domain [Rg]; the ionization radius
	// search runs over this interval.
	RIn() float64
	ROut() float64
	// RMin and RMax bound the emitting disc surface [Rg] for the
	// radiation force integral.
	RMin() float64
	RMax() float64

	RhoShielding() float64   // shielding atmosphere density [cm^-3]
	XrayLuminosity() float64 // [erg/s]
	Eta() float64            // radiative efficiency
	Fx() float64             // fraction of bolometric power in X-rays
	Mdot() float64           // accretion rate in Eddington units
	RG() float64             // gravitational radius [cm]

	VKepler(r float64) float64         // Keplerian velocity at r [c]
	VEsc(d float64) float64            // escape velocity at distance d [c]
	VThermal() float64                 // thermal velocity at the wind temperature [c]
	ThermalVelocity(t float64) float64 // thermal velocity at temperature t [c]
	TauDr(rho float64) float64         // optical depth per unit length [1/Rg]
}

// DiscParams configures a Disc. DefaultDiscParams gives the reference quasar
// run (2e8 solar mass black hole at half Eddington).
type DiscParams struct {
	M            float64 // black hole mass [Msun]
	Mdot         float64 // Eddington ratio
	Eta          float64 // radiative efficiency
	Fx           float64 // X-ray power fraction
	T            float64 // wind temperature [K]
	RhoShielding float64 // [cm^-3]
	RInit        float64 // [Rg]
	RIn          float64 // [Rg]
	ROut         float64 // [Rg]
	RMin         float64 // disc inner emitting radius [Rg]
	RMax         float64 // disc outer emitting radius [Rg]
}

// DefaultDiscParams returns the reference run parameters.
func DefaultDiscParams() DiscParams {
	return DiscParams{
		M:            2e8,
		Mdot:         0.5,
		Eta:          0.057,
		Fx:           0.15,
		T:            2e6,
		RhoShielding: 2e8,
		RInit:        200,
		RIn:          200,
		ROut:         1600,
		RMin:         6,
		RMax:         1600,
	}
}

// Disc is the standard Context implementation, derived from black hole mass
// and Eddington-scaled accretion rate.
type Disc struct {
	p DiscParams

	rg       float64
	lEdd     float64
	lBol     float64
	lX       float64
	vThermal float64
}

// NewDisc derives the luminosity scalars from the given parameters.
func NewDisc(p DiscParams) *Disc {
	d := &Disc{p: p}
	d.rg = G * p.M * MSun / (C * C)
	d.lEdd = 4 * math.Pi * G * p.M * MSun * MP * C / SigmaT
	d.lBol = p.Mdot * d.lEdd
	d.lX = p.Fx * d.lBol
	d.vThermal = d.ThermalVelocity(p.T)
	return d
}

func (d *Disc) RInit() float64          { return d.p.RInit }
func (d *Disc) RIn() float64            { return d.p.RIn }
func (d *Disc) ROut() float64           { return d.p.ROut }
func (d *Disc) RMin() float64           { return d.p.RMin }
func (d *Disc) RMax() float64           { return d.p.RMax }
func (d *Disc) RhoShielding() float64   { return d.p.RhoShielding }
func (d *Disc) XrayLuminosity() float64 { return d.lX }
func (d *Disc) Eta() float64            { return d.p.Eta }
func (d *Disc) Fx() float64             { return d.p.Fx }
func (d *Disc) Mdot() float64           { return d.p.Mdot }
func (d *Disc) RG() float64             { return d.rg }

// EddingtonLuminosity returns L_edd [erg/s].
func (d *Disc) EddingtonLuminosity() float64 { return d.lEdd }

// BolometricLuminosity returns mdot * L_edd [erg/s].
func (d *Disc) BolometricLuminosity() float64 { return d.lBol }

// VKepler returns the Keplerian orbital velocity at radius r [Rg], in units
// of c.
func (d *Disc) VKepler(r float64) float64 { return math.Sqrt(1 / r) }

// VEsc returns the escape velocity at distance dist [Rg] from the origin, in
// units of c.
func (d *Disc) VEsc(dist float64) float64 { return math.Sqrt(2 / dist) }

// VThermal returns the thermal velocity at the wind temperature, in units
// of c.
func (d *Disc) VThermal() float64 { return d.vThermal }

// ThermalVelocity returns the thermal velocity of the plasma at temperature
// t [K], in units of c.
func (d *Disc) ThermalVelocity(t float64) float64 {
	return math.Sqrt(KB*t/(MeanMolecularWeight*MP)) / C
}

// TauDr returns the characteristic optical depth per unit Rg for gas of
// number density rho [cm^-3].
func (d *Disc) TauDr(rho float64) float64 { return SigmaT * rho * d.rg }

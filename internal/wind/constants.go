package wind

// Physical constants in cgs units.
const (
	C      = 2.99792458e10     // speed of light [cm/s]
	G      = 6.6743e-8         // gravitational constant [cm^3 g^-1 s^-2]
	MSun   = 1.98847e33        // solar mass [g]
	SigmaT = 6.6524587158e-25  // Thomson cross section [cm^2]
	MP     = 1.67262192369e-24 // proton mass [g]
	KB     = 1.380649e-16      // Boltzmann constant [erg/K]

	// IonizationParameterCritical is the xi threshold separating fully
	// ionized, X-ray transparent gas from shielded gas [erg cm/s].
	IonizationParameterCritical = 1e5

	// MeanMolecularWeight of the wind plasma, in proton masses.
	MeanMolecularWeight = 0.6
)

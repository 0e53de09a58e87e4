package surety

import "github.com/flightsurety/suretynode/types"

// Policy constants of the insurance product. They mirror the deployed
// contract parameters: amounts are expressed with types.OneUnit playing
// the role of one ether.
const (
	// MinAirlineFunding is the single deposit size that unlocks the
	// funded status of a registered airline. Smaller deposits are
	// accepted into the pool but do not unlock the status.
	MinAirlineFunding = 10 * types.OneUnit

	// MaxInsurancePremium caps the premium a passenger may pay for one
	// insurance policy.
	MaxInsurancePremium = 1 * types.OneUnit

	// OracleRegistrationFee is the exact fee required to register an
	// oracle identity.
	OracleRegistrationFee = 1 * types.OneUnit
)

const (
	// FoundingAirlines is how many airlines register freely before
	// multiparty consensus is required.
	FoundingAirlines = 4

	// OracleIndexCount is how many distinct indexes every oracle is
	// assigned on registration.
	OracleIndexCount = 3

	// OracleIndexRange bounds the index values to [0, OracleIndexRange).
	OracleIndexRange = 10

	// OracleConsensusThreshold is the number of matching oracle
	// responses that finalizes a flight status.
	OracleConsensusThreshold = 3
)

// creditFor returns the payout owed for a premium after an
// airline-attributable delay: 1.5x, in exact integer arithmetic.
func creditFor(premium types.Value) types.Value {
	return premium + premium/2
}

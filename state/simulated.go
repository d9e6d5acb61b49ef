package state

import (
	"database/sql"

	"github.com/TEENet-io/bridge-mirror/common"
	"github.com/TEENet-io/bridge-mirror/database"
	"github.com/TEENet-io/bridge-mirror/numeric"
	logger "github.com/sirupsen/logrus"
)

func RandInbound(chain common.ChainId, verified bool, timestamp uint64) *InboundTx {
	return &InboundTx{
		TransactionHash: common.RandTxHash(),
		ChainId:         chain,
		From:            common.RandEthAddress(),
		Value:           numeric.FromUint64(100),
		Principal:       common.RandPrincipal(),
		Erc20Contract:   common.NativeTokenAddress,
		Status:          InboundStatus{Kind: InboundPendingVerification},
		Verified:        verified,
		Timestamp:       timestamp,
		Operator:        common.OperatorAppic,
	}
}

func RandOutbound(chain common.ChainId, burnIndex uint64, verified bool, timestamp uint64) *OutboundTx {
	return &OutboundTx{
		NativeLedgerBurnIndex: burnIndex,
		ChainId:               chain,
		From:                  common.RandPrincipal(),
		Destination:           common.RandEthAddress(),
		WithdrawalAmount:      numeric.FromUint64(1000),
		Erc20Contract:         common.NativeTokenAddress,
		Status:                OutboundStatus{Kind: OutboundPendingVerification},
		Verified:              verified,
		Timestamp:             timestamp,
		Operator:              common.OperatorAppic,
	}
}

// NewSimulatedState returns a State over a fresh in-memory database and a
// function releasing it.
func NewSimulatedState() (*State, func(), error) {
	sqlDB := getMemoryDB()
	statedb, err := NewStateDB(sqlDB)
	if err != nil {
		sqlDB.Close()
		return nil, nil, err
	}
	st, err := New(statedb)
	if err != nil {
		statedb.Close()
		sqlDB.Close()
		return nil, nil, err
	}
	return st, func() {
		st.Close()
		sqlDB.Close()
	}, nil
}

func getMemoryDB() *sql.DB {
	db, err := database.OpenSqlite(":memory:")
	if err != nil {
		logger.Fatal(err)
	}
	return db
}

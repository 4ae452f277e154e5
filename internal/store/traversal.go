package store

import (
	"cmp"
	"context"
	"slices"

	"github.com/earnings-navigator/backend/internal/models"
)

// Relationship traversal. Every method returns detached value copies: mutating a result
// never touches the store, and no result holds a reference back to its parent.

// CompanyByTicker reads a company by its unique ticker
func (u *UnitOfWork) CompanyByTicker(ticker string) (models.Company, error) {
	return u.Companies.FindOne("ticker", ticker)
}

// CallsForCompany lists a company's calls, oldest fiscal period first.
// Fails with ErrNotFound when the company does not exist.
func (u *UnitOfWork) CallsForCompany(companyID uint) ([]models.EarningsCall, error) {
	if _, err := u.Companies.Get(companyID); err != nil {
		return nil, err
	}
	calls, err := u.Calls.List(ListOptions{
		Where: map[string]interface{}{"company_id": companyID},
	})
	if err != nil {
		return nil, err
	}
	sortByPeriod(calls)
	return calls, nil
}

// CompanyForCall reads the company that owns a call
func (u *UnitOfWork) CompanyForCall(callID uint) (models.Company, error) {
	call, err := u.Calls.Get(callID)
	if err != nil {
		return models.Company{}, err
	}
	return u.Companies.Get(call.CompanyID)
}

// AnalysisForCall reads the analysis of a call. Fails with ErrNotFound when the call has
// not been analysed yet.
func (u *UnitOfWork) AnalysisForCall(callID uint) (models.EarningsAnalysis, error) {
	return u.Analyses.FindOne("earnings_call_id", callID)
}

// CallForAnalysis reads the call an analysis belongs to
func (u *UnitOfWork) CallForAnalysis(analysisID uint) (models.EarningsCall, error) {
	analysis, err := u.Analyses.Get(analysisID)
	if err != nil {
		return models.EarningsCall{}, err
	}
	return u.Calls.Get(analysis.EarningsCallID)
}

// QueriesForCall lists the queries asked about a call in the order they were recorded.
// Fails with ErrNotFound when the call does not exist.
func (u *UnitOfWork) QueriesForCall(callID uint) ([]models.Query, error) {
	if _, err := u.Calls.Get(callID); err != nil {
		return nil, err
	}
	return u.Queries.List(ListOptions{
		Where:   map[string]interface{}{"earnings_call_id": callID},
		OrderBy: "created_at",
	})
}

// CallForQuery reads the call a query was asked about
func (u *UnitOfWork) CallForQuery(queryID uint) (models.EarningsCall, error) {
	q, err := u.Queries.Get(queryID)
	if err != nil {
		return models.EarningsCall{}, err
	}
	return u.Calls.Get(q.EarningsCallID)
}

// sortByPeriod orders calls by fiscal year, then quarter, then id
func sortByPeriod(calls []models.EarningsCall) {
	slices.SortStableFunc(calls, func(a, b models.EarningsCall) int {
		if c := cmp.Compare(a.FiscalYear, b.FiscalYear); c != 0 {
			return c
		}
		if c := cmp.Compare(a.FiscalQuarter, b.FiscalQuarter); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// TableCount is the number of rows in one table
type TableCount struct {
	Table string
	Rows  int64
}

// TableCounts reports the row count of every table in dependency order
func TableCounts(ctx context.Context, s *Store) ([]TableCount, error) {
	var out []TableCount
	err := s.Do(ctx, func(uow *UnitOfWork) error {
		counters := []struct {
			table string
			count func(ListOptions) (int64, error)
		}{
			{uow.Companies.entity(), uow.Companies.Count},
			{uow.Calls.entity(), uow.Calls.Count},
			{uow.Analyses.entity(), uow.Analyses.Count},
			{uow.Queries.entity(), uow.Queries.Count},
		}
		out = make([]TableCount, 0, len(counters))
		for _, c := range counters {
			n, err := c.count(ListOptions{})
			if err != nil {
				return err
			}
			out = append(out, TableCount{Table: c.table, Rows: n})
		}
		return nil
	})
	return out, err
}

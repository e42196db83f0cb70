package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/helios-erp/helios-erp/internal/invoicing"
	"github.com/helios-erp/helios-erp/internal/payments"
	"github.com/helios-erp/helios-erp/internal/payroll"
	"github.com/helios-erp/helios-erp/internal/purchasing"
)

// invoicing

func (t *tx) InsertCustomer(ctx context.Context, c invoicing.Customer) (invoicing.Customer, error) {
	err := t.q.QueryRow(ctx, `
		INSERT INTO customers (name, email, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		c.Name, c.Email, c.Balance, c.CreatedAt, c.UpdatedAt,
	).Scan(&c.ID)
	if err != nil {
		return invoicing.Customer{}, fmt.Errorf("pgstore: insert customer: %w", err)
	}
	return c, nil
}

func scanCustomer(row pgx.Row) (invoicing.Customer, error) {
	var c invoicing.Customer
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Balance, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return invoicing.Customer{}, invoicing.ErrCustomerNotFound
	}
	if err != nil {
		return invoicing.Customer{}, fmt.Errorf("pgstore: scan customer: %w", err)
	}
	return c, nil
}

func (t *tx) GetCustomer(ctx context.Context, id int64) (invoicing.Customer, error) {
	return scanCustomer(t.q.QueryRow(ctx,
		`SELECT id, name, email, balance, created_at, updated_at FROM customers WHERE id = $1`, id))
}

func (t *tx) GetCustomerForUpdate(ctx context.Context, id int64) (invoicing.Customer, error) {
	return scanCustomer(t.q.QueryRow(ctx,
		`SELECT id, name, email, balance, created_at, updated_at FROM customers WHERE id = $1 FOR UPDATE`, id))
}

func (t *tx) ListCustomers(ctx context.Context) ([]invoicing.Customer, error) {
	rows, err := t.q.Query(ctx,
		`SELECT id, name, email, balance, created_at, updated_at FROM customers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("pgstore: list customers: %w", err)
	}
	defer rows.Close()
	var out []invoicing.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (t *tx) UpdateCustomerBalance(ctx context.Context, id int64, balance decimal.Decimal) error {
	tag, err := t.q.Exec(ctx,
		`UPDATE customers SET balance = $2, updated_at = NOW() WHERE id = $1`, id, balance)
	if err != nil {
		return fmt.Errorf("pgstore: update customer balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return invoicing.ErrCustomerNotFound
	}
	return nil
}

const invoiceColumns = `id, number, source_ref, customer_id, issue_date, due_date, status,
	subtotal, tax_amount, total, paid_amount, balance, journal_entry_id,
	estimate_id, sent_at, created_at, updated_at`

func scanInvoice(row pgx.Row) (invoicing.Invoice, error) {
	var inv invoicing.Invoice
	err := row.Scan(&inv.ID, &inv.Number, &inv.SourceRef, &inv.CustomerID,
		&inv.IssueDate, &inv.DueDate, &inv.Status, &inv.Subtotal, &inv.TaxAmount,
		&inv.Total, &inv.PaidAmount, &inv.Balance, &inv.JournalEntryID,
		&inv.EstimateID, &inv.SentAt, &inv.CreatedAt, &inv.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return invoicing.Invoice{}, invoicing.ErrInvoiceNotFound
	}
	if err != nil {
		return invoicing.Invoice{}, fmt.Errorf("pgstore: scan invoice: %w", err)
	}
	return inv, nil
}

func (t *tx) InsertInvoice(ctx context.Context, inv invoicing.Invoice) (invoicing.Invoice, error) {
	err := t.q.QueryRow(ctx, `
		INSERT INTO invoices (
			number, source_ref, customer_id, issue_date, due_date, status,
			subtotal, tax_amount, total, paid_amount, balance, journal_entry_id,
			estimate_id, sent_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id`,
		inv.Number, inv.SourceRef, inv.CustomerID, inv.IssueDate, inv.DueDate,
		inv.Status, inv.Subtotal, inv.TaxAmount, inv.Total, inv.PaidAmount,
		inv.Balance, inv.JournalEntryID, inv.EstimateID, inv.SentAt,
		inv.CreatedAt, inv.UpdatedAt,
	).Scan(&inv.ID)
	if err != nil {
		return invoicing.Invoice{}, fmt.Errorf("pgstore: insert invoice: %w", err)
	}
	for i := range inv.Lines {
		inv.Lines[i].InvoiceID = inv.ID
		err := t.q.QueryRow(ctx, `
			INSERT INTO invoice_lines (invoice_id, description, quantity, unit_price, tax_rate, amount, tax_amount)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id`,
			inv.ID, inv.Lines[i].Description, inv.Lines[i].Quantity,
			inv.Lines[i].UnitPrice, inv.Lines[i].TaxRate, inv.Lines[i].Amount,
			inv.Lines[i].TaxAmount,
		).Scan(&inv.Lines[i].ID)
		if err != nil {
			return invoicing.Invoice{}, fmt.Errorf("pgstore: insert invoice line: %w", err)
		}
	}
	return inv, nil
}

func (t *tx) loadInvoiceLines(ctx context.Context, inv *invoicing.Invoice) error {
	rows, err := t.q.Query(ctx, `
		SELECT id, invoice_id, description, quantity, unit_price, tax_rate, amount, tax_amount
		FROM invoice_lines WHERE invoice_id = $1 ORDER BY id`, inv.ID)
	if err != nil {
		return fmt.Errorf("pgstore: load invoice lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l invoicing.InvoiceLine
		if err := rows.Scan(&l.ID, &l.InvoiceID, &l.Description, &l.Quantity,
			&l.UnitPrice, &l.TaxRate, &l.Amount, &l.TaxAmount); err != nil {
			return fmt.Errorf("pgstore: scan invoice line: %w", err)
		}
		inv.Lines = append(inv.Lines, l)
	}
	return rows.Err()
}

func (t *tx) GetInvoice(ctx context.Context, id int64) (invoicing.Invoice, error) {
	inv, err := scanInvoice(t.q.QueryRow(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id))
	if err != nil {
		return invoicing.Invoice{}, err
	}
	if err := t.loadInvoiceLines(ctx, &inv); err != nil {
		return invoicing.Invoice{}, err
	}
	return inv, nil
}

func (t *tx) GetInvoiceForUpdate(ctx context.Context, id int64) (invoicing.Invoice, error) {
	inv, err := scanInvoice(t.q.QueryRow(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return invoicing.Invoice{}, err
	}
	if err := t.loadInvoiceLines(ctx, &inv); err != nil {
		return invoicing.Invoice{}, err
	}
	return inv, nil
}

func (t *tx) UpdateInvoice(ctx context.Context, inv invoicing.Invoice) error {
	tag, err := t.q.Exec(ctx, `
		UPDATE invoices
		SET status = $2, paid_amount = $3, balance = $4, sent_at = $5, updated_at = $6
		WHERE id = $1`,
		inv.ID, inv.Status, inv.PaidAmount, inv.Balance, inv.SentAt, inv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("pgstore: update invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return invoicing.ErrInvoiceNotFound
	}
	return nil
}

func (t *tx) ListInvoices(ctx context.Context, filter invoicing.InvoiceFilter) ([]invoicing.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE 1=1`
	args := make([]interface{}, 0, 2)
	if filter.CustomerID != 0 {
		args = append(args, filter.CustomerID)
		query += fmt.Sprintf(" AND customer_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY id"

	rows, err := t.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pgstore: list invoices: %w", err)
	}
	defer rows.Close()
	var out []invoicing.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if err := t.loadInvoiceLines(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

const estimateColumns = `id, number, customer_id, issue_date, expiry_date, status,
	subtotal, tax_amount, total, converted_invoice_id, created_at, updated_at`

func scanEstimate(row pgx.Row) (invoicing.Estimate, error) {
	var est invoicing.Estimate
	err := row.Scan(&est.ID, &est.Number, &est.CustomerID, &est.IssueDate,
		&est.ExpiryDate, &est.Status, &est.Subtotal, &est.TaxAmount, &est.Total,
		&est.ConvertedInvoiceID, &est.CreatedAt, &est.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return invoicing.Estimate{}, invoicing.ErrEstimateNotFound
	}
	if err != nil {
		return invoicing.Estimate{}, fmt.Errorf("pgstore: scan estimate: %w", err)
	}
	return est, nil
}

func (t *tx) InsertEstimate(ctx context.Context, est invoicing.Estimate) (invoicing.Estimate, error) {
	err := t.q.QueryRow(ctx, `
		INSERT INTO estimates (
			number, customer_id, issue_date, expiry_date, status,
			subtotal, tax_amount, total, converted_invoice_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`,
		est.Number, est.CustomerID, est.IssueDate, est.ExpiryDate, est.Status,
		est.Subtotal, est.TaxAmount, est.Total, est.ConvertedInvoiceID,
		est.CreatedAt, est.UpdatedAt,
	).Scan(&est.ID)
	if err != nil {
		return invoicing.Estimate{}, fmt.Errorf("pgstore: insert estimate: %w", err)
	}
	for i := range est.Lines {
		est.Lines[i].EstimateID = est.ID
		err := t.q.QueryRow(ctx, `
			INSERT INTO estimate_lines (estimate_id, description, quantity, unit_price, tax_rate, amount, tax_amount)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id`,
			est.ID, est.Lines[i].Description, est.Lines[i].Quantity,
			est.Lines[i].UnitPrice, est.Lines[i].TaxRate, est.Lines[i].Amount,
			est.Lines[i].TaxAmount,
		).Scan(&est.Lines[i].ID)
		if err != nil {
			return invoicing.Estimate{}, fmt.Errorf("pgstore: insert estimate line: %w", err)
		}
	}
	return est, nil
}

func (t *tx) loadEstimateLines(ctx context.Context, est *invoicing.Estimate) error {
	rows, err := t.q.Query(ctx, `
		SELECT id, estimate_id, description, quantity, unit_price, tax_rate, amount, tax_amount
		FROM estimate_lines WHERE estimate_id = $1 ORDER BY id`, est.ID)
	if err != nil {
		return fmt.Errorf("pgstore: load estimate lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l invoicing.EstimateLine
		if err := rows.Scan(&l.ID, &l.EstimateID, &l.Description, &l.Quantity,
			&l.UnitPrice, &l.TaxRate, &l.Amount, &l.TaxAmount); err != nil {
			return fmt.Errorf("pgstore: scan estimate line: %w", err)
		}
		est.Lines = append(est.Lines, l)
	}
	return rows.Err()
}

func (t *tx) GetEstimateForUpdate(ctx context.Context, id int64) (invoicing.Estimate, error) {
	est, err := scanEstimate(t.q.QueryRow(ctx,
		`SELECT `+estimateColumns+` FROM estimates WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return invoicing.Estimate{}, err
	}
	if err := t.loadEstimateLines(ctx, &est); err != nil {
		return invoicing.Estimate{}, err
	}
	return est, nil
}

func (t *tx) UpdateEstimate(ctx context.Context, est invoicing.Estimate) error {
	tag, err := t.q.Exec(ctx, `
		UPDATE estimates
		SET status = $2, converted_invoice_id = $3, updated_at = $4
		WHERE id = $1`,
		est.ID, est.Status, est.ConvertedInvoiceID, est.UpdatedAt)
	if err != nil {
		return fmt.Errorf("pgstore: update estimate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return invoicing.ErrEstimateNotFound
	}
	return nil
}

func (t *tx) ListEstimates(ctx context.Context) ([]invoicing.Estimate, error) {
	rows, err := t.q.Query(ctx, `SELECT `+estimateColumns+` FROM estimates ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("pgstore: list estimates: %w", err)
	}
	defer rows.Close()
	var out []invoicing.Estimate
	for rows.Next() {
		est, err := scanEstimate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, est)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if err := t.loadEstimateLines(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// payments

func (t *tx) InsertPayment(ctx context.Context, p payments.Payment) (payments.Payment, error) {
	err := t.q.QueryRow(ctx, `
		INSERT INTO payments (number, source_ref, customer_id, amount, date, method, journal_entry_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		p.Number, p.SourceRef, p.CustomerID, p.Amount, p.Date, p.Method,
		p.JournalEntryID, p.CreatedAt,
	).Scan(&p.ID)
	if err != nil {
		return payments.Payment{}, fmt.Errorf("pgstore: insert payment: %w", err)
	}
	for i := range p.Allocations {
		p.Allocations[i].PaymentID = p.ID
		err := t.q.QueryRow(ctx, `
			INSERT INTO payment_allocations (payment_id, invoice_id, amount)
			VALUES ($1, $2, $3)
			RETURNING id`,
			p.ID, p.Allocations[i].InvoiceID, p.Allocations[i].Amount,
		).Scan(&p.Allocations[i].ID)
		if err != nil {
			return payments.Payment{}, fmt.Errorf("pgstore: insert payment allocation: %w", err)
		}
	}
	return p, nil
}

func scanPayment(row pgx.Row) (payments.Payment, error) {
	var p payments.Payment
	err := row.Scan(&p.ID, &p.Number, &p.SourceRef, &p.CustomerID, &p.Amount,
		&p.Date, &p.Method, &p.JournalEntryID, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return payments.Payment{}, payments.ErrPaymentNotFound
	}
	if err != nil {
		return payments.Payment{}, fmt.Errorf("pgstore: scan payment: %w", err)
	}
	return p, nil
}

func (t *tx) loadAllocations(ctx context.Context, p *payments.Payment) error {
	rows, err := t.q.Query(ctx, `
		SELECT id, payment_id, invoice_id, amount
		FROM payment_allocations WHERE payment_id = $1 ORDER BY id`, p.ID)
	if err != nil {
		return fmt.Errorf("pgstore: load payment allocations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var a payments.Allocation
		if err := rows.Scan(&a.ID, &a.PaymentID, &a.InvoiceID, &a.Amount); err != nil {
			return fmt.Errorf("pgstore: scan payment allocation: %w", err)
		}
		p.Allocations = append(p.Allocations, a)
	}
	return rows.Err()
}

func (t *tx) GetPayment(ctx context.Context, id int64) (payments.Payment, error) {
	p, err := scanPayment(t.q.QueryRow(ctx, `
		SELECT id, number, source_ref, customer_id, amount, date, method, journal_entry_id, created_at
		FROM payments WHERE id = $1`, id))
	if err != nil {
		return payments.Payment{}, err
	}
	if err := t.loadAllocations(ctx, &p); err != nil {
		return payments.Payment{}, err
	}
	return p, nil
}

func (t *tx) ListPayments(ctx context.Context, customerID int64) ([]payments.Payment, error) {
	query := `
		SELECT id, number, source_ref, customer_id, amount, date, method, journal_entry_id, created_at
		FROM payments`
	args := make([]interface{}, 0, 1)
	if customerID != 0 {
		args = append(args, customerID)
		query += " WHERE customer_id = $1"
	}
	query += " ORDER BY id"

	rows, err := t.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pgstore: list payments: %w", err)
	}
	defer rows.Close()
	var out []payments.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if err := t.loadAllocations(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// payroll

func (t *tx) InsertEmployee(ctx context.Context, e payroll.Employee) (payroll.Employee, error) {
	err := t.q.QueryRow(ctx, `
		INSERT INTO employees (name, email, salary, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		e.Name, e.Email, e.Salary, e.IsActive, e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
	if err != nil {
		return payroll.Employee{}, fmt.Errorf("pgstore: insert employee: %w", err)
	}
	return e, nil
}

func scanEmployee(row pgx.Row) (payroll.Employee, error) {
	var e payroll.Employee
	err := row.Scan(&e.ID, &e.Name, &e.Email, &e.Salary, &e.IsActive, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return payroll.Employee{}, payroll.ErrEmployeeNotFound
	}
	if err != nil {
		return payroll.Employee{}, fmt.Errorf("pgstore: scan employee: %w", err)
	}
	return e, nil
}

func (t *tx) GetEmployee(ctx context.Context, id int64) (payroll.Employee, error) {
	return scanEmployee(t.q.QueryRow(ctx,
		`SELECT id, name, email, salary, is_active, created_at, updated_at FROM employees WHERE id = $1`, id))
}

func (t *tx) UpdateEmployee(ctx context.Context, e payroll.Employee) error {
	tag, err := t.q.Exec(ctx, `
		UPDATE employees SET name = $2, email = $3, salary = $4, is_active = $5, updated_at = $6
		WHERE id = $1`,
		e.ID, e.Name, e.Email, e.Salary, e.IsActive, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("pgstore: update employee: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrEmployeeNotFound
	}
	return nil
}

func (t *tx) ListEmployees(ctx context.Context, activeOnly bool) ([]payroll.Employee, error) {
	query := `SELECT id, name, email, salary, is_active, created_at, updated_at FROM employees`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY id`
	rows, err := t.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("pgstore: list employees: %w", err)
	}
	defer rows.Close()
	var out []payroll.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

const runColumns = `id, number, source_ref, period, status, total_gross, total_paye,
	total_social, total_health, total_net, journal_entry_id, processed_at, created_at, updated_at`

func scanRun(row pgx.Row) (payroll.Run, error) {
	var r payroll.Run
	err := row.Scan(&r.ID, &r.Number, &r.SourceRef, &r.Period, &r.Status,
		&r.TotalGross, &r.TotalPAYE, &r.TotalSocial, &r.TotalHealth, &r.TotalNet,
		&r.JournalEntryID, &r.ProcessedAt, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return payroll.Run{}, payroll.ErrRunNotFound
	}
	if err != nil {
		return payroll.Run{}, fmt.Errorf("pgstore: scan payroll run: %w", err)
	}
	return r, nil
}

func (t *tx) InsertRun(ctx context.Context, r payroll.Run) (payroll.Run, error) {
	err := t.q.QueryRow(ctx, `
		INSERT INTO payroll_runs (
			number, source_ref, period, status, total_gross, total_paye,
			total_social, total_health, total_net, journal_entry_id,
			processed_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`,
		r.Number, r.SourceRef, r.Period, r.Status, r.TotalGross, r.TotalPAYE,
		r.TotalSocial, r.TotalHealth, r.TotalNet, r.JournalEntryID,
		r.ProcessedAt, r.CreatedAt, r.UpdatedAt,
	).Scan(&r.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return payroll.Run{}, payroll.ErrDuplicatePeriod
		}
		return payroll.Run{}, fmt.Errorf("pgstore: insert payroll run: %w", err)
	}
	for i := range r.Payslips {
		r.Payslips[i].RunID = r.ID
		err := t.q.QueryRow(ctx, `
			INSERT INTO payslips (run_id, employee_id, employee_name, gross, paye, social, health, net)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id`,
			r.ID, r.Payslips[i].EmployeeID, r.Payslips[i].EmployeeName,
			r.Payslips[i].Gross, r.Payslips[i].PAYE, r.Payslips[i].Social,
			r.Payslips[i].Health, r.Payslips[i].Net,
		).Scan(&r.Payslips[i].ID)
		if err != nil {
			return payroll.Run{}, fmt.Errorf("pgstore: insert payslip: %w", err)
		}
	}
	return r, nil
}

func (t *tx) loadPayslips(ctx context.Context, r *payroll.Run) error {
	rows, err := t.q.Query(ctx, `
		SELECT id, run_id, employee_id, employee_name, gross, paye, social, health, net
		FROM payslips WHERE run_id = $1 ORDER BY id`, r.ID)
	if err != nil {
		return fmt.Errorf("pgstore: load payslips: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var p payroll.Payslip
		if err := rows.Scan(&p.ID, &p.RunID, &p.EmployeeID, &p.EmployeeName,
			&p.Gross, &p.PAYE, &p.Social, &p.Health, &p.Net); err != nil {
			return fmt.Errorf("pgstore: scan payslip: %w", err)
		}
		r.Payslips = append(r.Payslips, p)
	}
	return rows.Err()
}

func (t *tx) GetRun(ctx context.Context, id int64) (payroll.Run, error) {
	r, err := scanRun(t.q.QueryRow(ctx,
		`SELECT `+runColumns+` FROM payroll_runs WHERE id = $1`, id))
	if err != nil {
		return payroll.Run{}, err
	}
	if err := t.loadPayslips(ctx, &r); err != nil {
		return payroll.Run{}, err
	}
	return r, nil
}

func (t *tx) GetRunForUpdate(ctx context.Context, id int64) (payroll.Run, error) {
	r, err := scanRun(t.q.QueryRow(ctx,
		`SELECT `+runColumns+` FROM payroll_runs WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return payroll.Run{}, err
	}
	if err := t.loadPayslips(ctx, &r); err != nil {
		return payroll.Run{}, err
	}
	return r, nil
}

func (t *tx) GetRunByPeriod(ctx context.Context, period string) (payroll.Run, error) {
	r, err := scanRun(t.q.QueryRow(ctx,
		`SELECT `+runColumns+` FROM payroll_runs WHERE period = $1`, period))
	if err != nil {
		return payroll.Run{}, err
	}
	if err := t.loadPayslips(ctx, &r); err != nil {
		return payroll.Run{}, err
	}
	return r, nil
}

func (t *tx) UpdateRun(ctx context.Context, r payroll.Run) error {
	tag, err := t.q.Exec(ctx, `
		UPDATE payroll_runs
		SET status = $2, journal_entry_id = $3, processed_at = $4, updated_at = $5
		WHERE id = $1`,
		r.ID, r.Status, r.JournalEntryID, r.ProcessedAt, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("pgstore: update payroll run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrRunNotFound
	}
	return nil
}

func (t *tx) ListRuns(ctx context.Context) ([]payroll.Run, error) {
	rows, err := t.q.Query(ctx, `SELECT `+runColumns+` FROM payroll_runs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("pgstore: list payroll runs: %w", err)
	}
	defer rows.Close()
	var out []payroll.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if err := t.loadPayslips(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// purchasing

func (t *tx) InsertVendor(ctx context.Context, v purchasing.Vendor) (purchasing.Vendor, error) {
	err := t.q.QueryRow(ctx, `
		INSERT INTO vendors (name, email, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		v.Name, v.Email, v.Balance, v.CreatedAt, v.UpdatedAt,
	).Scan(&v.ID)
	if err != nil {
		return purchasing.Vendor{}, fmt.Errorf("pgstore: insert vendor: %w", err)
	}
	return v, nil
}

func scanVendor(row pgx.Row) (purchasing.Vendor, error) {
	var v purchasing.Vendor
	err := row.Scan(&v.ID, &v.Name, &v.Email, &v.Balance, &v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return purchasing.Vendor{}, purchasing.ErrVendorNotFound
	}
	if err != nil {
		return purchasing.Vendor{}, fmt.Errorf("pgstore: scan vendor: %w", err)
	}
	return v, nil
}

func (t *tx) GetVendor(ctx context.Context, id int64) (purchasing.Vendor, error) {
	return scanVendor(t.q.QueryRow(ctx,
		`SELECT id, name, email, balance, created_at, updated_at FROM vendors WHERE id = $1`, id))
}

func (t *tx) GetVendorForUpdate(ctx context.Context, id int64) (purchasing.Vendor, error) {
	return scanVendor(t.q.QueryRow(ctx,
		`SELECT id, name, email, balance, created_at, updated_at FROM vendors WHERE id = $1 FOR UPDATE`, id))
}

func (t *tx) ListVendors(ctx context.Context) ([]purchasing.Vendor, error) {
	rows, err := t.q.Query(ctx,
		`SELECT id, name, email, balance, created_at, updated_at FROM vendors ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("pgstore: list vendors: %w", err)
	}
	defer rows.Close()
	var out []purchasing.Vendor
	for rows.Next() {
		v, err := scanVendor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (t *tx) UpdateVendorBalance(ctx context.Context, id int64, balance decimal.Decimal) error {
	tag, err := t.q.Exec(ctx,
		`UPDATE vendors SET balance = $2, updated_at = NOW() WHERE id = $1`, id, balance)
	if err != nil {
		return fmt.Errorf("pgstore: update vendor balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return purchasing.ErrVendorNotFound
	}
	return nil
}

func scanPurchase(row pgx.Row) (purchasing.Purchase, error) {
	var p purchasing.Purchase
	err := row.Scan(&p.ID, &p.Number, &p.SourceRef, &p.VendorID, &p.Date,
		&p.Reference, &p.Subtotal, &p.TaxAmount, &p.Total, &p.JournalEntryID,
		&p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return purchasing.Purchase{}, purchasing.ErrPurchaseNotFound
	}
	if err != nil {
		return purchasing.Purchase{}, fmt.Errorf("pgstore: scan purchase: %w", err)
	}
	return p, nil
}

func (t *tx) InsertPurchase(ctx context.Context, p purchasing.Purchase) (purchasing.Purchase, error) {
	err := t.q.QueryRow(ctx, `
		INSERT INTO purchases (
			number, source_ref, vendor_id, date, reference,
			subtotal, tax_amount, total, journal_entry_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`,
		p.Number, p.SourceRef, p.VendorID, p.Date, p.Reference,
		p.Subtotal, p.TaxAmount, p.Total, p.JournalEntryID, p.CreatedAt,
	).Scan(&p.ID)
	if err != nil {
		return purchasing.Purchase{}, fmt.Errorf("pgstore: insert purchase: %w", err)
	}
	for i := range p.Lines {
		p.Lines[i].PurchaseID = p.ID
		err := t.q.QueryRow(ctx, `
			INSERT INTO purchase_lines (purchase_id, description, account_code, quantity, unit_price, tax_rate, amount, tax_amount)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id`,
			p.ID, p.Lines[i].Description, p.Lines[i].AccountCode,
			p.Lines[i].Quantity, p.Lines[i].UnitPrice, p.Lines[i].TaxRate,
			p.Lines[i].Amount, p.Lines[i].TaxAmount,
		).Scan(&p.Lines[i].ID)
		if err != nil {
			return purchasing.Purchase{}, fmt.Errorf("pgstore: insert purchase line: %w", err)
		}
	}
	return p, nil
}

func (t *tx) loadPurchaseLines(ctx context.Context, p *purchasing.Purchase) error {
	rows, err := t.q.Query(ctx, `
		SELECT id, purchase_id, description, account_code, quantity, unit_price, tax_rate, amount, tax_amount
		FROM purchase_lines WHERE purchase_id = $1 ORDER BY id`, p.ID)
	if err != nil {
		return fmt.Errorf("pgstore: load purchase lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l purchasing.PurchaseLine
		if err := rows.Scan(&l.ID, &l.PurchaseID, &l.Description, &l.AccountCode,
			&l.Quantity, &l.UnitPrice, &l.TaxRate, &l.Amount, &l.TaxAmount); err != nil {
			return fmt.Errorf("pgstore: scan purchase line: %w", err)
		}
		p.Lines = append(p.Lines, l)
	}
	return rows.Err()
}

func (t *tx) GetPurchase(ctx context.Context, id int64) (purchasing.Purchase, error) {
	p, err := scanPurchase(t.q.QueryRow(ctx, `
		SELECT id, number, source_ref, vendor_id, date, reference, subtotal, tax_amount, total, journal_entry_id, created_at
		FROM purchases WHERE id = $1`, id))
	if err != nil {
		return purchasing.Purchase{}, err
	}
	if err := t.loadPurchaseLines(ctx, &p); err != nil {
		return purchasing.Purchase{}, err
	}
	return p, nil
}

func (t *tx) ListPurchases(ctx context.Context, vendorID int64) ([]purchasing.Purchase, error) {
	query := `
		SELECT id, number, source_ref, vendor_id, date, reference, subtotal, tax_amount, total, journal_entry_id, created_at
		FROM purchases`
	args := make([]interface{}, 0, 1)
	if vendorID != 0 {
		args = append(args, vendorID)
		query += " WHERE vendor_id = $1"
	}
	query += " ORDER BY id"

	rows, err := t.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pgstore: list purchases: %w", err)
	}
	defer rows.Close()
	var out []purchasing.Purchase
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if err := t.loadPurchaseLines(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

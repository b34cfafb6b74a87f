package ofx

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aclindsa/ofxgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

`

const signon = `<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>KOR
</SONRS>
</SIGNONMSGSRSV1>
`

const sampleCardOFX = header + `<OFX>
` + signon + `<CREDITCARDMSGSRSV1>
<CCSTMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<CCSTMTRS>
<CURDEF>KRW
<CCACCTFROM>
<ACCTID>9410123456781234
</CCACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240110120000[0:GMT]
<TRNAMT>-8900.50
<FITID>CC2024011001
<NAME>MCDONALDS ANSAN
</STMTTRN>
<STMTTRN>
<TRNTYPE>PAYMENT
<DTPOSTED>20240112120000[0:GMT]
<TRNAMT>50000
<FITID>CC2024011201
<NAME>PAYMENT THANK YOU
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240115120000[0:GMT]
<TRNAMT>-65000
<FITID>CC2024011501
<NAME>PURCHASE
<MEMO>GS CALTEX YEOKSAM
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>-73900
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</CCSTMTRS>
</CCSTMTTRNRS>
</CREDITCARDMSGSRSV1>
</OFX>`

const sampleBankOFX = header + `<OFX>
` + signon + `<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>KRW
<BANKACCTFROM>
<BANKID>088
<ACCTID>110222333444
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240120120000[0:GMT]
<TRNAMT>-12000
<FITID>2024012001
<NAME>DAISO
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>1000000
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		accounts []string
		count    int
		skipped  int
		wantErr  bool
	}{
		{name: "card statement", data: sampleCardOFX, accounts: []string{"9410123456781234"}, count: 2, skipped: 1},
		{name: "bank statement", data: "\n\n" + sampleBankOFX, accounts: []string{"110222333444"}, count: 1},
		{name: "invalid", data: "not valid OFX", wantErr: true},
		{name: "empty", data: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := NewParser(nil).Parse(context.Background(), strings.NewReader(tt.data))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, st.Transactions, tt.count)
			assert.Equal(t, tt.skipped, st.Skipped)
			assert.Equal(t, tt.accounts, st.Accounts)
		})
	}
}

func TestParseCardTransactions(t *testing.T) {
	st, err := NewParser(nil).Parse(context.Background(), strings.NewReader(sampleCardOFX))
	require.NoError(t, err)
	require.Len(t, st.Transactions, 2)

	first := st.Transactions[0]
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, "MCDONALDS ANSAN", first.RawMerchant)
	assert.Equal(t, int64(8900), first.Amount)
	require.NotNil(t, first.Date)
	assert.Equal(t, 2024, first.Date.Year())
	assert.Equal(t, time.January, first.Date.Month())
	assert.Equal(t, 10, first.Date.Day())

	second := st.Transactions[1]
	assert.Equal(t, "GS CALTEX YEOKSAM", second.RawMerchant, "generic NAME falls back to MEMO")
	assert.Equal(t, int64(65000), second.Amount)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestMerchantName(t *testing.T) {
	tests := []struct {
		name string
		tx   ofxgo.Transaction
		want string
	}{
		{"payee wins", ofxgo.Transaction{Name: "POS", Payee: &ofxgo.Payee{Name: "STARBUCKS"}}, "STARBUCKS"},
		{"name trimmed", ofxgo.Transaction{Name: "  NETFLIX.COM  "}, "NETFLIX.COM"},
		{"generic uses memo", ofxgo.Transaction{Name: "카드결제", Memo: "이마트 성수점"}, "이마트 성수점"},
		{"generic without memo", ofxgo.Transaction{Name: "DEBIT"}, "DEBIT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, merchantName(tt.tx))
		})
	}
}

func TestPreprocess(t *testing.T) {
	in := "\uFEFF\n  <OFX>\n<SEVERITY>Info</SEVERITY>\n<CODE\n"
	out := preprocess(in)
	assert.True(t, strings.HasPrefix(out, "<OFX>"))
	assert.Contains(t, out, "<SEVERITY>INFO</SEVERITY>")
	assert.Contains(t, out, "<CODE>")
}

func TestParseCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewParser(nil).Parse(ctx, strings.NewReader(sampleCardOFX))
	assert.ErrorIs(t, err, context.Canceled)
}

package wallet

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPhrase = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestParseDerivationPath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		want    string
		wantErr bool
	}{
		{"primary", "m/86'/0'/0'/0/0", "m/86'/0'/0'/0/0", false},
		{"h suffix", "m/86h/1H/2'/1/7", "m/86'/1'/2'/1/7", false},
		{"no prefix", "86'/0'/0'/0/3", "m/86'/0'/0'/0/3", false},
		{"too short", "m/86'/0'/0'", "", true},
		{"unhardened purpose", "m/86/0'/0'/0/0", "", true},
		{"hardened index", "m/86'/0'/0'/0/0'", "", true},
		{"bad change", "m/86'/0'/0'/2/0", "", true},
		{"not a number", "m/86'/x'/0'/0/0", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dp, err := ParseDerivationPath(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, dp.String())
		})
	}
}

func TestDeriveRecordBIP86Vector(t *testing.T) {
	rec, err := DeriveRecord(testPhrase, "", DefaultPrimaryPath, &chaincfg.MainNetParams)
	require.NoError(t, err)

	assert.Equal(t, "bc1p5cyxnuxmeuwuvkwfem96lqzszd02n6xdcjrs20cac6yqjjwudpxqkedrcr", rec.Address)
	assert.Equal(t, DefaultPrimaryPath, rec.Path)
	assert.Len(t, rec.PublicKey, 66)
	require.NoError(t, rec.Validate(&chaincfg.MainNetParams))
}

func TestDeriveRecordRejectsBadMnemonic(t *testing.T) {
	_, err := DeriveRecord("abandon abandon abandon", "", DefaultPrimaryPath, &chaincfg.MainNetParams)
	assert.ErrorIs(t, err, ErrInvalidMnemonic)
}

func TestDeriveRecordNormalizesSpaces(t *testing.T) {
	a, err := DeriveRecord(testPhrase, "", DefaultFundingPath, &chaincfg.TestNet3Params)
	require.NoError(t, err)
	b, err := DeriveRecord("  "+testPhrase+"\n", "", DefaultFundingPath, &chaincfg.TestNet3Params)
	require.NoError(t, err)
	assert.Equal(t, a.Address, b.Address)
	assert.Contains(t, a.Address, "tb1p")
}

func TestRecordValidate(t *testing.T) {
	net := &chaincfg.MainNetParams
	primary, err := DeriveRecord(testPhrase, "", DefaultPrimaryPath, net)
	require.NoError(t, err)
	funding, err := DeriveRecord(testPhrase, "", DefaultFundingPath, net)
	require.NoError(t, err)

	t.Run("address mismatch", func(t *testing.T) {
		rec := *primary
		rec.Address = funding.Address
		assert.Error(t, rec.Validate(net))
	})

	t.Run("public key mismatch", func(t *testing.T) {
		rec := *primary
		rec.PublicKey = funding.PublicKey
		assert.Error(t, rec.Validate(net))
	})

	t.Run("wrong network", func(t *testing.T) {
		rec := *primary
		assert.Error(t, rec.Validate(&chaincfg.TestNet3Params))
	})

	t.Run("fills public key", func(t *testing.T) {
		rec := *primary
		rec.PublicKey = ""
		require.NoError(t, rec.Validate(net))
		assert.Equal(t, primary.PublicKey, rec.PublicKey)

		pub, err := rec.PublicKeyBytes()
		require.NoError(t, err)
		assert.Len(t, pub, 33)
	})
}

func TestLoadWalletFile(t *testing.T) {
	net := &chaincfg.MainNetParams
	primary, err := DeriveRecord(testPhrase, "", DefaultPrimaryPath, net)
	require.NoError(t, err)
	funding, err := DeriveRecord(testPhrase, "", DefaultFundingPath, net)
	require.NoError(t, err)
	imported, err := DeriveRecord(testPhrase, "", "m/86'/0'/0'/0/5", net)
	require.NoError(t, err)

	// 文件中不携带公钥，由加载过程补全
	strip := func(r *Record) *Record {
		c := *r
		c.PublicKey = ""
		return &c
	}
	content, err := json.Marshal(File{
		Phrase:   testPhrase,
		Primary:  strip(primary),
		Funding:  strip(funding),
		Imported: map[string]*Record{"cold": strip(imported)},
	})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "wallet.json")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	f, err := LoadWalletFile(path, net)
	require.NoError(t, err)

	rec, err := f.Select("")
	require.NoError(t, err)
	assert.Equal(t, primary.Address, rec.Address)
	assert.Equal(t, primary.PublicKey, rec.PublicKey)

	rec, err = f.Select(AliasFunding)
	require.NoError(t, err)
	assert.Equal(t, funding.Address, rec.Address)

	rec, err = f.Select("cold")
	require.NoError(t, err)
	assert.Equal(t, imported.Address, rec.Address)

	_, err = f.Select("missing")
	assert.ErrorIs(t, err, ErrUnknownAlias)
}

func TestLoadWalletFileRequiresRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallet.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"phrase":"x"}`), 0o600))

	_, err := LoadWalletFile(path, &chaincfg.MainNetParams)
	assert.Error(t, err)
}

func TestNewMnemonic(t *testing.T) {
	phrase, err := NewMnemonic()
	require.NoError(t, err)
	_, err = DeriveRecord(phrase, "", DefaultPrimaryPath, &chaincfg.RegressionNetParams)
	assert.NoError(t, err)
}

func TestNewFileSaveAndLoad(t *testing.T) {
	net := &chaincfg.RegressionNetParams
	f, err := NewFile("  "+testPhrase+" ", "", net)
	require.NoError(t, err)
	assert.Equal(t, testPhrase, f.Phrase)
	assert.Equal(t, DefaultPrimaryPath, f.Primary.Path)
	assert.Equal(t, DefaultFundingPath, f.Funding.Path)
	assert.NotEqual(t, f.Primary.Address, f.Funding.Address)

	path := filepath.Join(t.TempDir(), "wallets", "wallet.json")
	require.NoError(t, f.SaveTo(path, false))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	err = f.SaveTo(path, false)
	assert.ErrorIs(t, err, ErrWalletExists)
	require.NoError(t, f.SaveTo(path, true))

	loaded, err := LoadWalletFile(path, net)
	require.NoError(t, err)
	assert.Equal(t, f.Primary.Address, loaded.Primary.Address)
	assert.Equal(t, f.Funding.WIF, loaded.Funding.WIF)
}

func TestNewFileRejectsBadMnemonic(t *testing.T) {
	_, err := NewFile("not a phrase", "", &chaincfg.MainNetParams)
	assert.ErrorIs(t, err, ErrInvalidMnemonic)
}

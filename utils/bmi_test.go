package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateBMI(t *testing.T) {
	bmi, err := CalculateBMI(170, 65)
	require.NoError(t, err)
	assert.InDelta(t, 22.49, bmi, 0.01)
}

func TestCalculateBMI_RejectsImplausibleInput(t *testing.T) {
	for _, tc := range [][2]float64{
		{0, 65}, {170, 0}, {-170, 65}, {30, 65}, {300, 65}, {170, 5}, {170, 500},
	} {
		_, err := CalculateBMI(tc[0], tc[1])
		assert.Error(t, err, "height=%v weight=%v", tc[0], tc[1])
	}
}

func TestBMICategory(t *testing.T) {
	assert.Equal(t, "Underweight", BMICategory(17.0))
	assert.Equal(t, "Normal weight", BMICategory(22.0))
	assert.Equal(t, "Overweight", BMICategory(27.0))
	assert.Equal(t, "Obesity class I", BMICategory(32.0))
	assert.Equal(t, "Obesity class II", BMICategory(37.0))
	assert.Equal(t, "Obesity class III", BMICategory(42.0))
}
